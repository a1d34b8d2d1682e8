// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// releaseStack holds the release functions of created driver objects.
// Objects are released in reverse creation order.
type releaseStack struct {
	names []string
	funcs []func()
}

func (r *releaseStack) push(name string, release func()) {
	r.names = append(r.names, name)
	r.funcs = append(r.funcs, release)
}

func (r *releaseStack) len() int {
	return len(r.funcs)
}

// releaseAll runs and forgets every release function, last pushed first.
// onRelease, when set, is told the name of each released object.
func (r *releaseStack) releaseAll(onRelease func(name string)) {
	for idx := len(r.funcs) - 1; idx >= 0; idx-- {
		r.funcs[idx]()
		if onRelease != nil {
			onRelease(r.names[idx])
		}
	}
	r.names = nil
	r.funcs = nil
}
