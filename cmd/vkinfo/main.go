// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"os"
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/window"
)

func init() {
	runtime.LockOSThread()
}

var (
	headless = flag.Bool("headless", false, "Do not open a window, skip the suitability check")
	indent   = flag.Bool("indent", true, "Indent the JSON output")
)

// deviceReport is printed for every physical device
type deviceReport struct {
	core.PhysicalDeviceInfo

	// Suitable is set when the device has a graphics queue family
	// able to present to the window surface
	Suitable    bool    `json:"suitable"`
	QueueFamily *uint32 `json:"queueFamily,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

func main() {
	flag.Parse()

	logger, _ := core.NewLogger("warn", os.Stderr, os.Stderr)
	configuration, err := core.LoadConfiguration(".env")
	if err == nil {
		logger, err = core.NewLogger(configuration.LogLevel, os.Stderr, os.Stderr)
	}
	var reports []deviceReport
	if err == nil {
		reports, err = inspect(logger, configuration)
	}
	if err == nil {
		encoder := json.NewEncoder(os.Stdout)
		if *indent {
			encoder.SetIndent("", "  ")
		}
		err = encoder.Encode(reports)
	}

	if err != nil {
		logger.WithError(err).Error("Device inspection failed")
		os.Exit(-1)
	}
}

func inspect(logger log.FieldLogger, configuration core.Configuration) ([]deviceReport, error) {
	var (
		win      window.Window
		procAddr unsafe.Pointer
	)
	if !*headless {
		var err error
		if win, err = window.Open(configuration.Window); err != nil {
			return nil, err
		}
		defer win.Destroy()
		procAddr = win.ProcAddr()
		configuration.Instance.Extensions = append(win.InstanceExtensions(), configuration.Instance.Extensions...)
	}

	appInfo := core.NewApplicationInfo(configuration.Instance.ApplicationName)
	instance, err := core.NewVulkanInstance(appInfo, procAddr, configuration.Instance, logger)
	if err != nil {
		return nil, err
	}
	defer instance.Destroy()

	infos := instance.PhysicalDevicesInfo()
	reports := make([]deviceReport, len(infos))
	for idx := range infos {
		reports[idx].PhysicalDeviceInfo = infos[idx]
	}
	if win == nil {
		return reports, nil
	}

	surface, err := win.CreateSurface(instance.Instance())
	if err != nil {
		return nil, err
	}
	defer vk.DestroySurface(instance.Instance(), surface, nil)

	for idx, candidate := range instance.Candidates(surface) {
		family, err := core.SelectQueueFamily(candidate)
		switch {
		case err == nil:
			reports[idx].Suitable = true
			reports[idx].QueueFamily = &family
		case errors.Is(err, core.ErrNoSuitableDevice):
			reports[idx].Reason = "no graphics queue family can present to the surface"
		default:
			reports[idx].Reason = err.Error()
		}
	}
	return reports, nil
}
