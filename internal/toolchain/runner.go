// Package toolchain is the process boundary with the Kotlin toolchain.
//
// Every external tool the pipeline touches (kotlinc, jar, the dependency
// resolver) goes through the Runner interface so that orchestration logic
// can be tested with a fake instead of a real toolchain.
package toolchain

import (
	"bytes"
	"os/exec"
)

// Result captures the outcome of one external tool invocation.
type Result struct {
	// ExitCode is the tool's exit status. Zero means success.
	ExitCode int

	// Output is the combined stdout and stderr of the tool, surfaced
	// verbatim in compile and wrapper diagnostics.
	Output string
}

// Runner runs an external tool and captures its exit code and output.
// A non-nil error means the tool could not be started at all; a tool that
// started and failed is reported through Result.ExitCode instead.
type Runner interface {
	Run(name string, args ...string) (Result, error)
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct{}

// NewRunner creates a Runner backed by real process execution.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(name string, args ...string) (Result, error) {
	var buf bytes.Buffer

	cmd := exec.Command(name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return Result{ExitCode: exitErr.ExitCode(), Output: buf.String()}, nil
		}

		return Result{}, &EnvironmentError{Tool: name, Reason: "failed to start", Err: err}
	}

	return Result{ExitCode: 0, Output: buf.String()}, nil
}
