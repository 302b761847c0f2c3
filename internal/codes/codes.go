// Package codes maps pipeline error kinds to process exit codes.
package codes

import (
	"errors"

	"github.com/krun-dev/krun/internal/compiler"
	"github.com/krun-dev/krun/internal/deps"
	"github.com/krun-dev/krun/internal/script"
	"github.com/krun-dev/krun/internal/toolchain"
)

// Exit codes, one per error kind. Every failure is fatal and unrecovered;
// the code tells scripted callers which stage gave up.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitResolution  = 2
	ExitDirective   = 3
	ExitDependency  = 4
	ExitCompile     = 5
	ExitWrapper     = 6
	ExitEnvironment = 7
)

var descriptions = map[int]string{
	ExitOK:          "Success",
	ExitFailure:     "General failure",
	ExitResolution:  "Script reference could not be resolved",
	ExitDirective:   "Malformed or misplaced build directive",
	ExitDependency:  "Dependency coordinate could not be resolved",
	ExitCompile:     "Compilation failed",
	ExitWrapper:     "Entry wrapper synthesis failed",
	ExitEnvironment: "Required tool or toolchain home missing",
}

// ExitCode returns the exit code for an error, classifying it by the
// pipeline's error taxonomy.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		resErr  *script.ResolutionError
		dirErr  *script.DirectiveError
		depErr  *deps.DependencyError
		compErr *compiler.CompileError
		wrapErr *compiler.WrapperError
		envErr  *toolchain.EnvironmentError
	)

	switch {
	case errors.As(err, &resErr):
		return ExitResolution
	case errors.As(err, &dirErr):
		return ExitDirective
	case errors.As(err, &depErr):
		return ExitDependency
	case errors.As(err, &compErr):
		return ExitCompile
	case errors.As(err, &wrapErr):
		return ExitWrapper
	case errors.As(err, &envErr):
		return ExitEnvironment
	}

	return ExitFailure
}

// Describe returns the description for an exit code, or a generic message
// if unknown.
func Describe(code int) string {
	if msg, ok := descriptions[code]; ok {
		return msg
	}

	return "Unknown error"
}
