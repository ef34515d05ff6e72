/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package vm

import (
	"sync"

	"github.com/kestrel-lang/kestrel/pkg/kestrelutil"
)

// StackSizeEnvVar names the environment variable that overrides the
// default VM's usable stack size. Values below MinStackSize are ignored.
const StackSizeEnvVar = "KESTREL_STACK_SIZE"

// registryMu guards theCurrent, theDefaultEng and haveDefaultEng. This core has no
// thread-local-storage equivalent, and Go's own concurrency model makes one
// an awkward fit; since a single VM instance is never meant to be driven by
// more than one goroutine at a time anyway, a single process-wide "current
// VM" pointer is the natural simplification here (see DESIGN.md), not a
// per-goroutine registry.
var (
	registryMu     sync.Mutex
	theCurrent     *VM
	theDefaultEng  = EngineRegular
	haveDefaultEng bool
)

// newDefault builds the process's default VM, sized from
// KESTREL_STACK_SIZE.
func newDefault() *VM {
	size := kestrelutil.GetenvInt(StackSizeEnvVar, DefaultStackSize)
	v := New(nil, size)
	if haveDefaultEng {
		v.SetEngine(theDefaultEng)
	}
	return v
}

// Current returns the process-wide current VM, creating the default one on
// first use.
func Current() *VM {
	registryMu.Lock()
	defer registryMu.Unlock()
	if theCurrent == nil {
		theCurrent = newDefault()
	}
	return theCurrent
}

// SetDefaultEngine sets which engine newly created default VMs (and the
// current one, if already created) start with.
func SetDefaultEngine(e Engine) {
	registryMu.Lock()
	theDefaultEng = e
	haveDefaultEng = true
	cur := theCurrent
	registryMu.Unlock()

	if cur != nil {
		cur.SetEngine(e)
	}
}

// CallWithVM runs fn with v installed as the process-wide current VM,
// restoring whatever was current before on return. If v differs from the
// previously-installed VM, v is marked non-rewindable for the duration of
// fn: a continuation captured during such an extent is permanently
// unreinstatable (ContinuationNotRewindable), grounded on
// scm_call_with_vm's SCM_F_WIND_EXPLICITLY handling of a foreign-VM
// invocation it can't safely unwind back through later.
func CallWithVM(v *VM, fn func()) {
	registryMu.Lock()
	prev := theCurrent
	theCurrent = v
	switched := prev != nil && prev != v
	var wasRewindable bool
	if switched {
		wasRewindable = v.rewindable
		v.rewindable = false
	}
	registryMu.Unlock()

	defer func() {
		registryMu.Lock()
		theCurrent = prev
		if switched {
			v.rewindable = wasRewindable
		}
		registryMu.Unlock()
	}()

	fn()
}
