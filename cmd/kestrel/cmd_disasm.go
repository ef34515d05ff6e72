/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/demo"
	"github.com/kestrel-lang/kestrel/pkg/errs"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <program>",
	Short: "Disassembles one of the demo programs",
	Long: "Disassembles one of the built-in demo programs (see pkg/demo).\n\n" +
		"Available programs: " + strings.Join(demo.Names, ", "),
	Args: cobra.ExactArgs(1),

	Run: func(cmd *cobra.Command, args []string) {
		prog, ok := demo.Get(args[0])
		if !ok {
			errs.ReportAndExit(errs.NewBadUsage("unknown program %q (available: %v)", args[0], strings.Join(demo.Names, ", ")))
		}
		bytecode.Disassemble(os.Stdout, prog.Code, prog.Debug)
	},
}
