/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package errs

const (
	// StatusCodeSuccess indicates a successful execution.
	StatusCodeSuccess = 0

	// StatusCodeRuntimeError indicates a recoverable VM error was raised and
	// reached the top level uncaught.
	StatusCodeRuntimeError = 1

	// StatusCodeTestSuiteError indicates a failure while running Kestrel's
	// own golden test suite.
	StatusCodeTestSuiteError = 2

	// StatusCodeCommandPrepError indicates an error getting ready to run a
	// command, e.g. a file that could not be opened or parsed.
	StatusCodeCommandPrepError = 3

	// StatusCodeBadUsage indicates some user error in the usage of the
	// kestrel tool (e.g., passing the wrong number of arguments).
	StatusCodeBadUsage = 50

	// StatusCodeFatalVMError indicates a VM error the process cannot
	// recover from: a malformed instruction word, or a second stack
	// overflow before the reserve was reclaimed.
	StatusCodeFatalVMError = 100

	// StatusCodeICE indicates an Internal Consistency Error.
	StatusCodeICE = 125
)
