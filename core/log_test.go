// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkboot/core"
)

func TestNewLoggerSplitsOutput(t *testing.T) {
	c := qt.New(t)
	var info, failures bytes.Buffer
	logger, err := core.NewLogger("debug", &info, &failures)
	c.Assert(err, qt.IsNil)

	logger.WithField("device", "gpu").Info("GPU selected")
	logger.Debug("Released")
	logger.Error("Setup failed")

	c.Assert(info.String(), qt.Contains, `msg="GPU selected"`)
	c.Assert(info.String(), qt.Contains, "device=gpu")
	c.Assert(info.String(), qt.Contains, "msg=Released")
	c.Assert(info.String(), qt.Not(qt.Contains), "Setup failed")
	c.Assert(failures.String(), qt.Contains, `msg="Setup failed"`)
	c.Assert(failures.String(), qt.Not(qt.Contains), "GPU selected")
}

func TestNewLoggerLevel(t *testing.T) {
	c := qt.New(t)
	var info, failures bytes.Buffer
	logger, err := core.NewLogger("warn", &info, &failures)
	c.Assert(err, qt.IsNil)
	logger.Info("hidden")
	c.Assert(info.Len(), qt.Equals, 0)

	_, err = core.NewLogger("loud", &info, &failures)
	c.Assert(err, qt.ErrorMatches, `VKBOOT_LOG_LEVEL: not a valid logrus Level: "loud"`)
	c.Assert(core.Kind(err), qt.Equals, core.ErrEnvironment)
}
