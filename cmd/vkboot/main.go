// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/window"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	logger, _ := core.NewLogger("info", os.Stdout, os.Stderr)

	configuration, err := core.LoadConfiguration(".env")
	if err == nil {
		logger, err = core.NewLogger(configuration.LogLevel, os.Stdout, os.Stderr)
	}
	if err == nil {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = run(ctx, logger, configuration)
		stop()
	}

	if err != nil {
		fields := log.Fields{}
		if kind := core.Kind(err); kind != nil {
			fields["kind"] = kind.Error()
		}
		logger.WithFields(fields).WithError(err).Error("Setup failed")
		os.Exit(-1)
	}
}

// run builds the whole chain and polls the window until it is closed.
// Everything created is released in reverse order before it returns.
func run(ctx context.Context, logger log.FieldLogger, configuration core.Configuration) error {
	win, err := window.Open(configuration.Window)
	if err != nil {
		return err
	}
	defer win.Destroy()
	logger.WithField("backend", configuration.Window.Backend).Info("Window created")

	shaders, closeShaders, err := openShaderSource(configuration.Renderer, logger)
	if err != nil {
		return err
	}
	defer closeShaders()

	instanceConfiguration := configuration.Instance
	instanceConfiguration.Extensions = append(win.InstanceExtensions(), instanceConfiguration.Extensions...)
	appInfo := core.NewApplicationInfo(instanceConfiguration.ApplicationName)
	instance, err := core.NewVulkanInstance(appInfo, win.ProcAddr(), instanceConfiguration, logger)
	if err != nil {
		return err
	}
	defer instance.Destroy()

	surface, err := win.CreateSurface(instance.Instance())
	if err != nil {
		return err
	}
	logger.Info("Surface created")

	if width, height := win.FramebufferSize(); width > 0 && height > 0 {
		configuration.Renderer.ScreenWidth = width
		configuration.Renderer.ScreenHeight = height
	}
	renderer := core.NewVulkanRenderer(instance, surface, shaders, configuration.Renderer, logger)
	defer renderer.Destroy()
	if err := renderer.Initialise(); err != nil {
		return err
	}

	width, height := renderer.Extent()
	logger.WithFields(log.Fields{
		"device": renderer.DeviceName(),
		"width":  width,
		"height": height,
	}).Info("Vulkan ready")

	time := core.NewTime(configuration.Time)
	defer time.Stop()
	if err := window.Loop(ctx, win, time); err != nil {
		logger.WithError(err).Info("Event loop interrupted")
		return nil
	}
	logger.Info("Event loop exited")
	return nil
}

func openShaderSource(cfg core.RendererConfiguration, logger log.FieldLogger) (core.ShaderSource, func(), error) {
	if cfg.ShaderArchive == "" {
		return core.DirectorySource{Dir: cfg.ShaderDirectory}, func() {}, nil
	}
	src, err := core.OpenArchiveSource(cfg.ShaderArchive)
	if err != nil {
		return nil, nil, err
	}
	return src, func() {
		if err := src.Close(); err != nil {
			logger.WithError(errors.Wrap(err, "close shader archive")).Warn("Shader archive not released")
		}
	}, nil
}
