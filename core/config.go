// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Configuration defines a global configuration setting
type Configuration struct {
	Window   WindowConfiguration
	Instance InstanceConfiguration
	Time     TimeConfiguration
	Renderer RendererConfiguration

	// LogLevel is a logrus level name
	LogLevel string
}

// WindowConfiguration is used to configure the native window
type WindowConfiguration struct {
	// Backend is the windowing library, "glfw" or "sdl"
	Backend string
	Title   string
	Width   uint32
	Height  uint32
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	ApplicationName string

	// DebugMode enables validation layers and a debug report callback
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// EventPollDelay is the interval in milliseconds between window event polls
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string

	// ShaderDirectory is where the compiled shaders are read from,
	// unless ShaderArchive names a kar archive to read them from instead.
	ShaderDirectory string
	ShaderArchive   string
	VertexShader    string
	FragmentShader  string

	// ScreenWidth and ScreenHeight are used when the surface
	// leaves the swapchain extent up to the application.
	ScreenWidth  uint32
	ScreenHeight uint32
}

// Environment keys read by LoadConfiguration
const (
	EnvWindowBackend  = "VKBOOT_WINDOW_BACKEND"
	EnvWidth          = "VKBOOT_WIDTH"
	EnvHeight         = "VKBOOT_HEIGHT"
	EnvTitle          = "VKBOOT_TITLE"
	EnvShaderDir      = "VKBOOT_SHADER_DIR"
	EnvShaderArchive  = "VKBOOT_SHADER_ARCHIVE"
	EnvVertexShader   = "VKBOOT_VERTEX_SHADER"
	EnvFragmentShader = "VKBOOT_FRAGMENT_SHADER"
	EnvDebug          = "VKBOOT_DEBUG"
	EnvEventPollDelay = "VKBOOT_EVENT_POLL_DELAY"
	EnvLogLevel       = "VKBOOT_LOG_LEVEL"
)

// DefaultConfiguration returns the configuration used when nothing is overridden
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Backend: "glfw",
			Title:   "GLFW + Vulkan, baby!",
			Width:   800,
			Height:  600,
		},
		Instance: InstanceConfiguration{
			ApplicationName: "Hello Vulkan",
		},
		Time: TimeConfiguration{
			EventPollDelay: 10,
		},
		Renderer: RendererConfiguration{
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			ShaderDirectory: ".",
			VertexShader:    "shader.vert.spv",
			FragmentShader:  "shader.frag.spv",
			ScreenWidth:     800,
			ScreenHeight:    600,
		},
		LogLevel: "info",
	}
}

// LoadConfiguration starts from DefaultConfiguration and applies overrides
// from the environment, then from the given env files in order. Env files
// override the environment and later files override earlier ones, the same
// way envy treats a .env file in the working directory. Missing files are
// skipped.
func LoadConfiguration(files ...string) (Configuration, error) {
	cfg := DefaultConfiguration()
	envy.Reload()
	for _, f := range files {
		values, err := godotenv.Read(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return cfg, errors.Mark(errors.Wrapf(err, "godotenv.Read(%s)", f), ErrFileAccess)
		}
		for key, value := range values {
			envy.Set(key, value)
		}
	}

	cfg.Window.Backend = envy.Get(EnvWindowBackend, cfg.Window.Backend)
	cfg.Window.Title = envy.Get(EnvTitle, cfg.Window.Title)
	cfg.Renderer.ShaderDirectory = envy.Get(EnvShaderDir, cfg.Renderer.ShaderDirectory)
	cfg.Renderer.ShaderArchive = envy.Get(EnvShaderArchive, cfg.Renderer.ShaderArchive)
	cfg.Renderer.VertexShader = envy.Get(EnvVertexShader, cfg.Renderer.VertexShader)
	cfg.Renderer.FragmentShader = envy.Get(EnvFragmentShader, cfg.Renderer.FragmentShader)
	cfg.LogLevel = envy.Get(EnvLogLevel, cfg.LogLevel)

	var err error
	if cfg.Window.Width, err = envUint32(EnvWidth, cfg.Window.Width); err != nil {
		return cfg, err
	}
	if cfg.Window.Height, err = envUint32(EnvHeight, cfg.Window.Height); err != nil {
		return cfg, err
	}
	if cfg.Time.EventPollDelay, err = envInt(EnvEventPollDelay, cfg.Time.EventPollDelay); err != nil {
		return cfg, err
	}
	if cfg.Instance.DebugMode, err = envBool(EnvDebug, cfg.Instance.DebugMode); err != nil {
		return cfg, err
	}

	cfg.Renderer.ScreenWidth = cfg.Window.Width
	cfg.Renderer.ScreenHeight = cfg.Window.Height

	if cfg.Window.Width == 0 || cfg.Window.Height == 0 {
		return cfg, errors.Mark(errors.Newf("window size %dx%d is empty", cfg.Window.Width, cfg.Window.Height), ErrEnvironment)
	}
	if cfg.Time.EventPollDelay <= 0 {
		return cfg, errors.Mark(errors.Newf("%s must be positive, got %d", EnvEventPollDelay, cfg.Time.EventPollDelay), ErrEnvironment)
	}
	return cfg, nil
}

func envUint32(key string, fallback uint32) (uint32, error) {
	v := envy.Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fallback, errors.Mark(errors.Wrapf(err, "%s", key), ErrEnvironment)
	}
	return uint32(n), nil
}

func envInt(key string, fallback int) (int, error) {
	v := envy.Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, errors.Mark(errors.Wrapf(err, "%s", key), ErrEnvironment)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := envy.Get(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, errors.Mark(errors.Wrapf(err, "%s", key), ErrEnvironment)
	}
	return b, nil
}
