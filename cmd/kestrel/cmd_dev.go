/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-lang/kestrel/pkg/errs"
	"github.com/kestrel-lang/kestrel/pkg/suite"
)

// devCmd groups commands meant to test Kestrel itself, not a guest
// program -- mirrors the teacher's own `dev` command group.
var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Commands for developing Kestrel itself",
}

// flagDevTestSuite is the value of the --suite flag of the `dev test` command.
var flagDevTestSuite string

var devTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Run Kestrel's own golden test suite",
	Long:  `Run Kestrel's own golden test suite (i.e., meant to test Kestrel itself).`,
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Using the bytecode execution core.")
		err := suite.ExecuteSuite(flagDevTestSuite)
		if err != nil {
			errs.ReportAndExit(err)
		}
	},
}

func init() {
	devTestCmd.Flags().StringVarP(&flagDevTestSuite, "suite", "s",
		"./test/suite", "Path to the test suite to run")
}
