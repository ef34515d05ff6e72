/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "kestrel",
	SilenceUsage: true,
	Short:        "Kestrel is a register-based VM core for a small Lisp-family language",
	Long: `Kestrel runs programs against a register-based execution core: a
value stack, call frames, full and delimited continuations, and a handful
of VM-resident builtins. There is no language front end here -- Kestrel
runs already-assembled programs, see the "demo" package for examples.`,
}

func init() {
	devCmd.AddCommand(devTestCmd)
	rootCmd.AddCommand(runCmd, disasmCmd, devCmd)
}
