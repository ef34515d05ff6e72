/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

package suite

import "testing"

// TestRunSuite runs Kestrel's own golden test suite. Not a unit test in the
// usual sense, but a convenient way to get the demo programs exercised
// (and covered) under `go test`, the same role the teacher's own
// TestRunSuite plays for its Storyworld fixtures.
func TestRunSuite(t *testing.T) {
	if err := ExecuteSuite("../../test/suite"); err != nil {
		t.Fatalf("Error running test suite: %v", err)
	}
}
