// Package deps maps dependency coordinates to a runtime classpath.
//
// The pipeline treats resolution as an opaque, blocking service: the default
// implementation shells out to a coursier-style fetch command and passes its
// diagnostics through on failure. Resolved classpaths are cached in the
// build journal, revalidated against the filesystem before reuse.
package deps

import (
	"fmt"
	"os"
	"strings"

	"github.com/krun-dev/krun/internal/cache"
	"github.com/krun-dev/krun/internal/checksum"
	"github.com/krun-dev/krun/internal/toolchain"
)

// DependencyError reports coordinates that could not be resolved to a
// classpath.
type DependencyError struct {
	Coords []string
	Output string
	Err    error
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("failed to resolve dependencies %s", strings.Join(e.Coords, ", "))
	if e.Output != "" {
		msg += ":\n" + e.Output
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Resolver maps an ordered list of dependency coordinates to a classpath.
type Resolver interface {
	Resolve(coords []string) (string, error)
}

// ToolResolver resolves coordinates by invoking an external fetch tool that
// prints the assembled classpath on its last output line.
type ToolResolver struct {
	// ToolPath is the resolver binary (e.g. coursier).
	ToolPath string

	// Runner executes the tool.
	Runner toolchain.Runner

	// Journal caches resolved classpaths. Optional.
	Journal *cache.Journal
}

// NewToolResolver creates a resolver backed by the given fetch tool.
func NewToolResolver(toolPath string, runner toolchain.Runner, journal *cache.Journal) *ToolResolver {
	return &ToolResolver{ToolPath: toolPath, Runner: runner, Journal: journal}
}

// Resolve returns the classpath for the given coordinates. An empty
// coordinate list resolves to an empty classpath without invoking the tool.
func (r *ToolResolver) Resolve(coords []string) (string, error) {
	if len(coords) == 0 {
		return "", nil
	}

	key := checksum.Text(strings.Join(coords, ";"))
	if r.Journal != nil {
		if cp, err := r.Journal.Classpath(key); err == nil && cp != "" && classpathIntact(cp) {
			return cp, nil
		}
	}

	args := append([]string{"fetch", "--classpath"}, coords...)
	result, err := r.Runner.Run(r.ToolPath, args...)
	if err != nil {
		return "", &DependencyError{Coords: coords, Err: err}
	}

	if result.ExitCode != 0 {
		return "", &DependencyError{Coords: coords, Output: result.Output}
	}

	classpath := lastNonEmptyLine(result.Output)
	if classpath == "" {
		return "", &DependencyError{Coords: coords, Output: result.Output, Err: fmt.Errorf("resolver produced no classpath")}
	}

	if r.Journal != nil {
		// Best effort; a failed journal write never fails the resolution.
		_ = r.Journal.PutClasspath(key, classpath)
	}

	return classpath, nil
}

// classpathIntact reports whether every entry of a cached classpath still
// exists on disk. A pruned local repository invalidates the cached value.
func classpathIntact(classpath string) bool {
	for _, entry := range strings.Split(classpath, string(os.PathListSeparator)) {
		if entry == "" {
			continue
		}

		if _, err := os.Stat(entry); err != nil {
			return false
		}
	}

	return true
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}

	return ""
}
