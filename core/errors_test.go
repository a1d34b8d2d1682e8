// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

func newTestLogger() log.FieldLogger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestKind(t *testing.T) {
	c := qt.New(t)
	c.Assert(Kind(nil), qt.IsNil)
	c.Assert(Kind(errors.New("plain")), qt.IsNil)
	c.Assert(Kind(ErrNoDevice), qt.Equals, ErrEnumeration)
	c.Assert(Kind(errors.Wrap(ErrInvalidShader, "vertex")), qt.Equals, ErrObjectCreation)
	c.Assert(Kind(MarkEnvironment(errors.New("no display"))), qt.Equals, ErrEnvironment)
}

func TestVkErrors(t *testing.T) {
	c := qt.New(t)
	c.Assert(vkCreateError("vk.CreateDevice()", vk.Success), qt.IsNil)
	c.Assert(vkQueryError("vk.EnumeratePhysicalDevices()", vk.Success), qt.IsNil)

	err := vkCreateError("vk.CreateDevice()", vk.ErrorInitializationFailed)
	c.Assert(err, qt.ErrorMatches, `vk.CreateDevice\(\): .*`)
	c.Assert(Kind(err), qt.Equals, ErrObjectCreation)

	err = vkQueryError("vk.EnumeratePhysicalDevices()", vk.ErrorOutOfHostMemory)
	c.Assert(Kind(err), qt.Equals, ErrEnumeration)
}
