/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package kestrelutil

import (
	"os"
	"strconv"
)

// GetenvInt reads an environment variable as an integer, returning
// fallback if the variable is unset, empty, or not a valid integer.
func GetenvInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
