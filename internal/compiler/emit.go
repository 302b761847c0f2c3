package compiler

import (
	"os"
	"path/filepath"
	"strings"
)

// runtimeLib is the runtime support library every emitted classpath carries,
// relative to the toolchain home.
var runtimeLib = filepath.Join("lib", "kotlin-stdlib.jar")

// Command is the final runnable invocation assembled from the pipeline's
// outputs.
type Command struct {
	// RuntimePath is the runtime launcher binary (kotlin).
	RuntimePath string

	// KotlinOpts are the runtime options collected from KOTLIN_OPTS lines.
	KotlinOpts string

	// Classpath entries in fixed order: artifact, runtime support library,
	// resolved dependency classpath.
	Classpath []string

	// EntryClass is the fully qualified class to launch.
	EntryClass string

	// Args are the arguments forwarded to the script.
	Args []string
}

// BuildCommand assembles the runtime invocation for a compiled artifact.
func BuildCommand(runtimePath string, artifact *Artifact, kotlinHome, depClasspath, kotlinOpts string, args []string) *Command {
	classpath := []string{
		artifact.Path,
		filepath.Join(kotlinHome, runtimeLib),
	}
	if depClasspath != "" {
		classpath = append(classpath, depClasspath)
	}

	return &Command{
		RuntimePath: runtimePath,
		KotlinOpts:  kotlinOpts,
		Classpath:   classpath,
		EntryClass:  artifact.EntryClass,
		Args:        args,
	}
}

// Line renders the single command line handed to the invoking shell:
// runtime options, classpath, entry class, forwarded arguments, in that
// fixed order.
func (c *Command) Line() string {
	parts := []string{c.RuntimePath}

	if c.KotlinOpts != "" {
		parts = append(parts, strings.Fields(c.KotlinOpts)...)
	}

	parts = append(parts, "-classpath", strings.Join(c.Classpath, string(os.PathListSeparator)))
	parts = append(parts, c.EntryClass)
	parts = append(parts, c.Args...)

	return strings.Join(parts, " ")
}

// ForwardedArgs returns the invocation arguments belonging to the script:
// every element strictly after the first occurrence of the raw script
// reference in the original argument vector.
func ForwardedArgs(argv []string, rawRef string) []string {
	for i, arg := range argv {
		if arg == rawRef {
			return argv[i+1:]
		}
	}

	return nil
}
