// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/window"
)

// events closes after a fixed number of polls
type events struct {
	polls, closeAfter int
}

func (e *events) ShouldClose() bool {
	return e.closeAfter >= 0 && e.polls >= e.closeAfter
}

func (e *events) PollEvents() {
	e.polls++
}

func TestLoopStopsOnClose(t *testing.T) {
	c := qt.New(t)
	tm := core.NewTime(core.TimeConfiguration{EventPollDelay: 1})
	defer tm.Stop()

	src := &events{closeAfter: 3}
	err := window.Loop(context.Background(), src, tm)
	c.Assert(err, qt.IsNil)
	c.Assert(src.polls, qt.Equals, 3)
}

func TestLoopClosedBeforeStart(t *testing.T) {
	c := qt.New(t)
	tm := core.NewTime(core.TimeConfiguration{EventPollDelay: 1})
	defer tm.Stop()

	src := &events{closeAfter: 0}
	c.Assert(window.Loop(context.Background(), src, tm), qt.IsNil)
	c.Assert(src.polls, qt.Equals, 0)
}

func TestLoopStopsOnCancel(t *testing.T) {
	c := qt.New(t)
	tm := core.NewTime(core.TimeConfiguration{EventPollDelay: 1})
	defer tm.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	src := &events{closeAfter: -1}
	err := window.Loop(ctx, src, tm)
	c.Assert(errors.Is(err, context.DeadlineExceeded), qt.IsTrue)
	c.Assert(src.polls > 0, qt.IsTrue)
}

func TestOpenUnknownBackend(t *testing.T) {
	c := qt.New(t)
	w, err := window.Open(core.WindowConfiguration{Backend: "wayland-direct"})
	c.Assert(w, qt.IsNil)
	c.Assert(err, qt.ErrorMatches, `unknown window backend "wayland-direct"`)
	c.Assert(core.Kind(err), qt.Equals, core.ErrEnvironment)
}
