// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Error kinds. Every error returned by this package carries exactly one
// of them, test with errors.Is or query with Kind.
var (
	ErrEnvironment    = errors.New("environment initialisation failed")
	ErrEnumeration    = errors.New("resource enumeration failed")
	ErrObjectCreation = errors.New("driver object creation failed")
	ErrFileAccess     = errors.New("file access failed")
)

// Specific failures, each marked with its kind.
var (
	ErrNoDevice         = errors.Mark(errors.New("no GPU found"), ErrEnumeration)
	ErrNoSuitableDevice = errors.Mark(errors.New("no GPU with graphics and present support found"), ErrEnumeration)
	ErrNoSurfaceFormats = errors.Mark(errors.New("surface reports no formats"), ErrEnumeration)
	ErrInvalidShader    = errors.Mark(errors.New("not a SPIR-V binary"), ErrObjectCreation)
)

var kinds = []error{
	ErrEnvironment,
	ErrEnumeration,
	ErrObjectCreation,
	ErrFileAccess,
}

// Kind returns the kind err was marked with, or nil when it carries none.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// MarkEnvironment marks err as an environment failure. Used by window
// backends that live outside of this package.
func MarkEnvironment(err error) error {
	return errors.Mark(err, ErrEnvironment)
}

// vkCreateError turns a failing result of a vk.Create* call into an
// object creation error, nil when the call succeeded.
func vkCreateError(call string, result vk.Result) error {
	if err := vk.Error(result); err != nil {
		return errors.Mark(errors.Wrapf(err, "%s", call), ErrObjectCreation)
	}
	return nil
}

// vkQueryError is vkCreateError for enumeration and query calls.
func vkQueryError(call string, result vk.Result) error {
	if err := vk.Error(result); err != nil {
		return errors.Mark(errors.Wrapf(err, "%s", call), ErrEnumeration)
	}
	return nil
}
