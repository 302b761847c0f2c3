package toolchain

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// EnvironmentError reports a missing external tool or an unconfigurable
// toolchain home.
type EnvironmentError struct {
	Tool   string
	Reason string
	Err    error
}

func (e *EnvironmentError) Error() string {
	msg := fmt.Sprintf("environment error: %s: %s", e.Tool, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// InferKotlinHome locates the Kotlin installation by probing the compiler
// binary itself: kotlinc lives at <home>/bin/kotlinc, so the home is the
// grandparent of the resolved binary path. Used when KOTLIN_HOME is neither
// configured nor set in the environment.
func InferKotlinHome(compiler string) (string, error) {
	path, err := exec.LookPath(compiler)
	if err != nil {
		return "", &EnvironmentError{Tool: compiler, Reason: "not found on PATH", Err: err}
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", &EnvironmentError{Tool: compiler, Reason: "failed to resolve binary path", Err: err}
	}

	return filepath.Dir(filepath.Dir(resolved)), nil
}
