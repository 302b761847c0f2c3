package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krun-dev/krun/internal/cache"
	"github.com/krun-dev/krun/internal/checksum"
	"github.com/krun-dev/krun/internal/script"
	"github.com/krun-dev/krun/internal/toolchain"
)

// fakeRunner records invocations and simulates tool behavior. The default
// handler succeeds and materializes the -d output target like kotlinc would.
type fakeRunner struct {
	calls   [][]string
	handler func(name string, args []string) (toolchain.Result, error)
}

func (f *fakeRunner) Run(name string, args ...string) (toolchain.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.handler != nil {
		return f.handler(name, args)
	}

	for i, arg := range args {
		if arg == "-d" && i+1 < len(args) && filepath.Ext(args[i+1]) != "" {
			if err := os.WriteFile(args[i+1], []byte("jar bytes"), 0o644); err != nil {
				return toolchain.Result{}, err
			}
		}
	}

	return toolchain.Result{ExitCode: 0}, nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeRunner) {
	t.Helper()

	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	runner := &fakeRunner{}

	return NewOrchestrator(store, runner, "kotlinc", "jar"), runner
}

func writeSource(t *testing.T, name, text string) *script.Source {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	return &script.Source{
		Kind:    script.KindFile,
		RawRef:  name,
		Path:    path,
		Content: []byte(text),
		Digest:  checksum.Text(text),
	}
}

func TestEnsure_CacheHitSkipsCompiler(t *testing.T) {
	o, runner := newTestOrchestrator(t)
	src := writeSource(t, "hello.kts", "println(1)")

	artifact := o.Store.ArtifactPath("hello", src.Digest)
	require.NoError(t, os.WriteFile(artifact, []byte("jar"), 0o644))

	result, err := o.Ensure(src, &script.Directives{}, "")
	require.NoError(t, err)

	assert.True(t, result.CacheHit)
	assert.Equal(t, artifact, result.Path)
	assert.Equal(t, "Main_Hello", result.EntryClass)
	assert.Empty(t, runner.calls, "a cache hit must perform zero external invocations")
	assert.Equal(t, StateReady, o.State())
}

func TestEnsure_ScriptKindCompilesAndWraps(t *testing.T) {
	o, runner := newTestOrchestrator(t)
	src := writeSource(t, "my-script.kts", "println(1)")

	result, err := o.Ensure(src, &script.Directives{}, "/repo/a.jar")
	require.NoError(t, err)

	assert.False(t, result.CacheHit)
	assert.Equal(t, o.Store.ArtifactPath("my-script", src.Digest), result.Path)
	assert.Equal(t, "Main_My_script", result.EntryClass)
	assert.Equal(t, StateReady, o.State())

	require.Len(t, runner.calls, 3, "compile, wrapper compile, merge")

	compile := runner.calls[0]
	assert.Equal(t, "kotlinc", compile[0])
	assert.Equal(t, []string{"-classpath", "/repo/a.jar"}, compile[1:3])
	assert.Equal(t, src.Path, compile[len(compile)-1])

	wrapperCompile := runner.calls[1]
	assert.Equal(t, "kotlinc", wrapperCompile[0])
	assert.Contains(t, wrapperCompile[len(wrapperCompile)-1], "Main_My_script.kt")

	merge := runner.calls[2]
	assert.Equal(t, "jar", merge[0])
	assert.Equal(t, "uf", merge[1])

	// Committed at the final path, no staging files left behind.
	_, err = os.Stat(result.Path)
	assert.NoError(t, err)
	assert.Empty(t, stagingFiles(t, o.Store.Root()))

	// The build is journaled.
	count, err := o.Store.Journal().BuildCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnsure_ClassKindSkipsWrapper(t *testing.T) {
	o, runner := newTestOrchestrator(t)
	src := writeSource(t, "tool.kt", "package foo.bar\nfun main() {}")

	result, err := o.Ensure(src, &script.Directives{Package: "foo.bar"}, "")
	require.NoError(t, err)

	assert.Equal(t, "foo.bar.ToolKt", result.EntryClass)
	assert.Len(t, runner.calls, 1, "class-kind sources need no wrapper")
}

func TestEnsure_CompileFailure(t *testing.T) {
	o, runner := newTestOrchestrator(t)
	runner.handler = func(name string, args []string) (toolchain.Result, error) {
		return toolchain.Result{ExitCode: 1, Output: "error: unresolved reference: foo\n"}, nil
	}

	src := writeSource(t, "broken.kts", "foo()")

	_, err := o.Ensure(src, &script.Directives{}, "")
	require.Error(t, err)

	var compErr *CompileError
	require.ErrorAs(t, err, &compErr)
	assert.Contains(t, compErr.Output, "unresolved reference: foo", "compiler diagnostics surface verbatim")
	assert.Equal(t, StateFailed, o.State())

	_, ok := o.Store.Lookup("broken", src.Digest)
	assert.False(t, ok, "a failed compile must not leave an artifact at the cache path")
}

func TestEnsure_WrapperFailureRemovesStagedArtifact(t *testing.T) {
	o, runner := newTestOrchestrator(t)
	runner.handler = func(name string, args []string) (toolchain.Result, error) {
		if name == "jar" {
			return toolchain.Result{ExitCode: 1, Output: "jar: merge failed\n"}, nil
		}

		for i, arg := range args {
			if arg == "-d" && filepath.Ext(args[i+1]) != "" {
				os.WriteFile(args[i+1], []byte("jar bytes"), 0o644)
			}
		}

		return toolchain.Result{ExitCode: 0}, nil
	}

	src := writeSource(t, "hello.kts", "println(1)")

	_, err := o.Ensure(src, &script.Directives{}, "")
	require.Error(t, err)

	var wrapErr *WrapperError
	require.ErrorAs(t, err, &wrapErr)
	assert.Equal(t, "merge", wrapErr.Stage)
	assert.Equal(t, StateFailed, o.State())

	assert.Empty(t, stagingFiles(t, o.Store.Root()), "staged artifact should be cleaned up on wrapper failure")
	_, ok := o.Store.Lookup("hello", src.Digest)
	assert.False(t, ok)
}

func stagingFiles(t *testing.T, root string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(root, "*.tmp"))
	require.NoError(t, err)

	return matches
}

func TestEnsure_ConcurrentWriterKeepsPrivateStaging(t *testing.T) {
	o, runner := newTestOrchestrator(t)
	src := writeSource(t, "hello.kts", "println(1)")

	// While this invocation merges its wrapper, a second invocation starts
	// compiling the same key and is still mid-write. Its partial bytes must
	// never end up at the committed artifact path.
	var otherStaged string
	runner.handler = func(name string, args []string) (toolchain.Result, error) {
		switch name {
		case "kotlinc":
			for i, arg := range args {
				if arg == "-d" && filepath.Ext(args[i+1]) == ".tmp" {
					if err := os.WriteFile(args[i+1], []byte("COMPLETE JAR"), 0o644); err != nil {
						return toolchain.Result{}, err
					}
				}
			}
		case "jar":
			staged, err := o.Store.NewStagingPath("hello", src.Digest)
			require.NoError(t, err)
			require.NotEqual(t, args[2], staged, "the second build must get its own staging file")
			require.NoError(t, os.WriteFile(staged, []byte("PARTIAL"), 0o644))
			otherStaged = staged
		}

		return toolchain.Result{ExitCode: 0}, nil
	}

	result, err := o.Ensure(src, &script.Directives{}, "")
	require.NoError(t, err)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("COMPLETE JAR"), content, "committed artifact carries this build's complete output")

	// The other build's staging file is still private, not published.
	partial, err := os.ReadFile(otherStaged)
	require.NoError(t, err)
	assert.Equal(t, []byte("PARTIAL"), partial)
	assert.NotEqual(t, result.Path, otherStaged)
}

func TestWrapperSource(t *testing.T) {
	src := &script.Source{Path: "/cache/my-script.kts"}

	text := WrapperSource(src, &script.Directives{})
	assert.Contains(t, text, "class Main_My_script {")
	assert.Contains(t, text, `loadClass("My_script")`)
	assert.Contains(t, text, "getDeclaredConstructor(Array<String>::class.java).newInstance(args)")
	assert.NotContains(t, text, "package ")

	text = WrapperSource(src, &script.Directives{Package: "foo.bar"})
	assert.Contains(t, text, "package foo.bar\n")
	assert.Contains(t, text, `loadClass("foo.bar.My_script")`)
}
