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
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
