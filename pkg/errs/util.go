/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package errs

import (
	"errors"
	"fmt"
	"os"
)

// ReportAndExit reports the error err to the end user and exits with the
// appropriate status code. It's fine if err is nil, we handle this case
// here by exiting successfully.
func ReportAndExit(err error) {
	badUsageError := &BadUsage{}
	cmdPrepError := &CommandPrep{}
	testSuiteError := &TestSuite{}
	vmError := &VMError{}
	iceErr := &ICE{}
	switch {
	case err == nil:
		os.Exit(StatusCodeSuccess)

	case errors.As(err, &badUsageError):
		fmt.Fprintf(os.Stderr, "Usage: %v\n", badUsageError)
		os.Exit(StatusCodeBadUsage)

	case errors.As(err, &cmdPrepError):
		fmt.Fprintf(os.Stderr, "%v\n", cmdPrepError)
		os.Exit(StatusCodeCommandPrepError)

	case errors.As(err, &testSuiteError):
		fmt.Fprintf(os.Stderr, "%v\n", testSuiteError)
		os.Exit(StatusCodeTestSuiteError)

	case errors.As(err, &vmError):
		fmt.Fprintf(os.Stderr, "%v\n", vmError)
		if vmError.Fatal {
			os.Exit(StatusCodeFatalVMError)
		}
		os.Exit(StatusCodeRuntimeError)

	case errors.As(err, &iceErr):
		fmt.Fprintf(os.Stderr, "Internal Consistency Error: %v\n", iceErr)
		os.Exit(StatusCodeICE)

	default:
		fmt.Fprintf(os.Stderr, "Internal Consistency Error: unexpected error of type %T: %v\n", err, err)
		os.Exit(StatusCodeICE)
	}
}
