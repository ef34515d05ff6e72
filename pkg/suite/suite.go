/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

// Package suite runs Kestrel's own golden test suite: TOML fixtures that
// each name one of pkg/demo's programs, the integer arguments to call it
// with, and the expected outcome, either a list of result values or an
// error kind. This mirrors the teacher's pkg/test package -- same TOML
// fixture format and ForEachMatchingFileRecursive-driven directory walk --
// adapted from "run this Storyworld and diff its output" to "run this VM
// program and diff its return values".
package suite

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/kestrel-lang/kestrel/pkg/bytecode"
	"github.com/kestrel-lang/kestrel/pkg/demo"
	"github.com/kestrel-lang/kestrel/pkg/errs"
	"github.com/kestrel-lang/kestrel/pkg/kestrelutil"
	"github.com/kestrel-lang/kestrel/pkg/vm"
)

// config mirrors one test case's TOML file.
type config struct {
	Program        string
	Engine         string
	Args           []int
	ExpectedValues []int
	ExpectedError  string
}

// ExecuteSuite runs every test.toml fixture found recursively under
// suitePath.
func ExecuteSuite(suitePath string) errs.Error {
	return kestrelutil.ForEachMatchingFileRecursive(suitePath, regexp.MustCompile(`^test\.toml$`),
		func(configPath string) errs.Error {
			return runCase(configPath)
		},
	)
}

func runCase(configPath string) errs.Error {
	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}

	prog, ok := demo.Get(cfg.Program)
	if !ok {
		return errs.NewTestSuite(configPath, "unknown demo program %q", cfg.Program)
	}

	theVM := vm.New(prog.Code, 0)
	theVM.Debug = prog.Debug
	if cfg.Engine == "debug" {
		theVM.SetEngine(vm.EngineDebug)
		theVM.SetTraceLevel(1)
	}

	args := make([]bytecode.Value, len(cfg.Args))
	for i, a := range cfg.Args {
		args[i] = bytecode.NewInt(a)
	}

	results, runErr := theVM.Run(prog.Entry, args)

	if cfg.ExpectedError != "" {
		if runErr == nil {
			return errs.NewTestSuite(configPath, "expected error kind %q, but the program returned normally", cfg.ExpectedError)
		}
		vmErr, isVMErr := runErr.(*errs.VMError)
		if !isVMErr || vmErr.Kind.String() != cfg.ExpectedError {
			return errs.NewTestSuite(configPath, "expected error kind %q, got %v", cfg.ExpectedError, runErr)
		}
		fmt.Printf("Test case passed: %v.\n", configPath)
		return nil
	}

	if runErr != nil {
		return errs.NewTestSuite(configPath, "running %q: %v", cfg.Program, runErr)
	}

	if len(results) != len(cfg.ExpectedValues) {
		return errs.NewTestSuite(configPath, "expected %d result value(s), got %d", len(cfg.ExpectedValues), len(results))
	}
	for i, want := range cfg.ExpectedValues {
		if !results[i].IsInt() || results[i].AsInt() != want {
			return errs.NewTestSuite(configPath, "result %d: expected %d, got %v", i, want, results[i])
		}
	}

	fmt.Printf("Test case passed: %v.\n", configPath)
	return nil
}

func readConfig(path string) (*config, errs.Error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewTestSuite(path, "%v", err)
	}
	cfg := &config{}
	if err := toml.Unmarshal(src, cfg); err != nil {
		return nil, errs.NewTestSuite(path, "%v", err)
	}
	return cfg, nil
}
