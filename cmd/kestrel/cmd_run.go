/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/demo"
	"github.com/kestrel-lang/kestrel/pkg/errs"
	"github.com/kestrel-lang/kestrel/pkg/vm"
)

var runDebugTraceExecution bool

var runCmd = &cobra.Command{
	Use:   "run <program> [int-args...]",
	Short: "Runs one of the demo programs",
	Long: fmt.Sprintf(`Runs one of the built-in demo programs (see pkg/demo), passing
any further arguments as integers.

Available programs: %v`, strings.Join(demo.Names, ", ")),
	Args: cobra.MinimumNArgs(1),

	Run: func(cmd *cobra.Command, args []string) {
		prog, ok := demo.Get(args[0])
		if !ok {
			errs.ReportAndExit(errs.NewBadUsage("unknown program %q (available: %v)", args[0], strings.Join(demo.Names, ", ")))
		}

		callArgs := make([]bytecode.Value, len(args)-1)
		for i, a := range args[1:] {
			n, err := strconv.Atoi(a)
			if err != nil {
				errs.ReportAndExit(errs.NewBadUsage("argument %q is not an integer", a))
			}
			callArgs[i] = bytecode.NewInt(n)
		}

		theVM := vm.New(prog.Code, 0)
		theVM.Debug = prog.Debug
		if runDebugTraceExecution {
			theVM.SetEngine(vm.EngineDebug)
			theVM.SetTraceLevel(1)
			theVM.SetTraceWriter(os.Stdout)
		}

		results, err := theVM.Run(prog.Entry, callArgs)
		if err != nil {
			errs.ReportAndExit(err)
		}

		for _, v := range results {
			fmt.Println(v)
		}
	},
}

func init() {
	runCmd.Flags().BoolVarP(&runDebugTraceExecution, "trace", "t", false,
		"Trace control-event hooks (apply, return, etc.) to stdout while running")
}
