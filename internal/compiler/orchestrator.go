// Package compiler orchestrates compilation into cached artifacts and emits
// the final runtime invocation.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/krun-dev/krun/internal/cache"
	"github.com/krun-dev/krun/internal/script"
	"github.com/krun-dev/krun/internal/toolchain"
)

// State tracks one orchestration pass over a source.
type State int

const (
	StateUncompiled State = iota
	StateCompiling
	StateWrapping
	StateWrapped
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUncompiled:
		return "uncompiled"
	case StateCompiling:
		return "compiling"
	case StateWrapping:
		return "wrapping"
	case StateWrapped:
		return "wrapped"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}

	return "unknown"
}

// CompileError reports a non-zero compiler exit. The compiler's full
// diagnostic text is carried verbatim.
type CompileError struct {
	Source   string
	ExitCode int
	Output   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compilation of %s failed (exit code %d):\n%s", e.Source, e.ExitCode, e.Output)
}

// WrapperError reports a failure synthesizing, compiling or merging the
// entry wrapper of a script-kind source.
type WrapperError struct {
	Stage  string
	Output string
	Err    error
}

func (e *WrapperError) Error() string {
	msg := fmt.Sprintf("wrapper %s failed", e.Stage)
	if e.Output != "" {
		msg += ":\n" + e.Output
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Artifact is a runnable compiled unit.
type Artifact struct {
	// Path is the committed artifact jar.
	Path string

	// EntryClass is the fully qualified runnable class, derived purely from
	// the source's name, kind, package and ENTRY override.
	EntryClass string

	// CacheHit reports whether the artifact came from the cache without a
	// compiler invocation.
	CacheHit bool
}

// Orchestrator produces cached artifacts from resolved sources. One
// orchestrator serves one invocation; there is no cross-process locking, so
// two concurrent first builds of the same key race benignly: each compiles
// into its own freshly created staging file and the rename commit makes one
// of them win whole.
type Orchestrator struct {
	Store        *cache.Store
	Runner       toolchain.Runner
	CompilerPath string
	ArchiverPath string
	Verbose      bool

	state State
}

// NewOrchestrator creates an orchestrator compiling with compilerPath and
// merging wrappers with archiverPath.
func NewOrchestrator(store *cache.Store, runner toolchain.Runner, compilerPath, archiverPath string) *Orchestrator {
	return &Orchestrator{
		Store:        store,
		Runner:       runner,
		CompilerPath: compilerPath,
		ArchiverPath: archiverPath,
	}
}

// State returns the current orchestration state.
func (o *Orchestrator) State() State {
	return o.state
}

// Ensure returns the artifact for a source, compiling it on a cache miss.
// A hit performs zero external tool invocations.
func (o *Orchestrator) Ensure(src *script.Source, dirs *script.Directives, depClasspath string) (*Artifact, error) {
	entryClass := script.EntryClass(src, dirs)
	baseName := src.BaseName()

	if path, ok := o.Store.Lookup(baseName, src.Digest); ok {
		o.state = StateReady
		o.logf("cache hit: %s", path)

		return &Artifact{Path: path, EntryClass: entryClass, CacheHit: true}, nil
	}

	staged, err := o.Store.NewStagingPath(baseName, src.Digest)
	if err != nil {
		o.state = StateFailed
		return nil, err
	}

	final := o.Store.ArtifactPath(baseName, src.Digest)

	o.state = StateCompiling
	start := time.Now()

	if err := o.compile(src, depClasspath, staged); err != nil {
		o.state = StateFailed
		os.Remove(staged)
		return nil, err
	}

	if src.IsScript() {
		o.state = StateWrapping

		if err := o.wrap(src, dirs, staged); err != nil {
			o.state = StateFailed
			os.Remove(staged)
			return nil, err
		}

		o.state = StateWrapped
	}

	if err := o.Store.Commit(staged, final); err != nil {
		o.state = StateFailed
		return nil, err
	}

	o.state = StateReady
	o.logf("compiled %s -> %s", src.Path, final)

	// Best effort; artifact existence is the source of truth, the journal
	// only feeds statistics.
	err = o.Store.Journal().RecordBuild(cache.BuildRecord{
		Script:         src.Path,
		Digest:         src.Digest,
		Artifact:       final,
		EntryClass:     entryClass,
		Timestamp:      time.Now(),
		DurationMillis: time.Since(start).Milliseconds(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to journal build: %v\n", err)
	}

	return &Artifact{Path: final, EntryClass: entryClass}, nil
}

func (o *Orchestrator) compile(src *script.Source, depClasspath, staged string) error {
	var args []string
	if depClasspath != "" {
		args = append(args, "-classpath", depClasspath)
	}

	args = append(args, "-d", staged, src.Path)
	o.logf("compile: %s %v", o.CompilerPath, args)

	result, err := o.Runner.Run(o.CompilerPath, args...)
	if err != nil {
		return err
	}

	if result.ExitCode != 0 {
		os.Remove(staged)
		return &CompileError{Source: src.Path, ExitCode: result.ExitCode, Output: result.Output}
	}

	return nil
}

// wrap compiles the synthesized wrapper class against the staged jar and
// merges the resulting classes into it in place.
func (o *Orchestrator) wrap(src *script.Source, dirs *script.Directives, staged string) error {
	wrapDir, err := os.MkdirTemp("", "krun-wrapper-*")
	if err != nil {
		return &WrapperError{Stage: "synthesis", Err: err}
	}
	defer os.RemoveAll(wrapDir)

	wrapperName := script.WrapperClassName(src.BaseName())
	wrapperFile := filepath.Join(wrapDir, wrapperName+".kt")
	if err := os.WriteFile(wrapperFile, []byte(WrapperSource(src, dirs)), 0o644); err != nil {
		return &WrapperError{Stage: "synthesis", Err: err}
	}

	classDir := filepath.Join(wrapDir, "classes")
	if err := os.MkdirAll(classDir, 0o755); err != nil {
		return &WrapperError{Stage: "synthesis", Err: err}
	}

	o.logf("wrapper compile: %s", wrapperFile)

	result, err := o.Runner.Run(o.CompilerPath, "-classpath", staged, "-d", classDir, wrapperFile)
	if err != nil {
		return &WrapperError{Stage: "compile", Err: err}
	}
	if result.ExitCode != 0 {
		return &WrapperError{Stage: "compile", Output: result.Output}
	}

	result, err = o.Runner.Run(o.ArchiverPath, "uf", staged, "-C", classDir, ".")
	if err != nil {
		return &WrapperError{Stage: "merge", Err: err}
	}
	if result.ExitCode != 0 {
		return &WrapperError{Stage: "merge", Output: result.Output}
	}

	return nil
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
