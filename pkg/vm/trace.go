/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/pkg/bytecode"
)

var hookKindNames = map[hookKind]string{
	hookApply:               "apply",
	hookPushContinuation:    "push-continuation",
	hookPopContinuation:     "pop-continuation",
	hookNext:                "next",
	hookAbortContinuation:   "abort-continuation",
	hookRestoreContinuation: "restore-continuation",
}

// writeTrace writes one line per control event to the VM's trace writer.
// This is the whole of Kestrel's tracing facility: plain io.Writer output,
// no logging framework involved, matching how the rest of this core
// reports diagnostics.
func (vm *VM) writeTrace(k hookKind, fv FrameView, extras []bytecode.Value) {
	fmt.Fprintf(vm.trace, "[trace] %-18s ip=%04d fp=%04d sp=%04d",
		hookKindNames[k], fv.IP, fv.FP, fv.SP)
	if vm.Debug != nil {
		if line := vm.Debug.LineAt(fv.IP); line > 0 {
			fmt.Fprintf(vm.trace, " line=%d", line)
		}
	}
	for _, v := range extras {
		fmt.Fprintf(vm.trace, " %v", v)
	}
	fmt.Fprintln(vm.trace)
}
