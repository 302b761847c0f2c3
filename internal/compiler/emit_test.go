package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCommand_ClasspathOrder(t *testing.T) {
	artifact := &Artifact{Path: "/cache/hello.0123456789abcdef.jar", EntryClass: "Main_Hello"}

	cmd := BuildCommand("kotlin", artifact, "/opt/kotlin", "/repo/lib.jar", "", nil)

	assert.Equal(t, []string{
		"/cache/hello.0123456789abcdef.jar",
		filepath.Join("/opt/kotlin", "lib", "kotlin-stdlib.jar"),
		"/repo/lib.jar",
	}, cmd.Classpath, "classpath order is artifact, runtime support library, dependencies")
}

func TestBuildCommand_NoDeps(t *testing.T) {
	artifact := &Artifact{Path: "/cache/hello.d.jar", EntryClass: "Main_Hello"}

	cmd := BuildCommand("kotlin", artifact, "/opt/kotlin", "", "", nil)
	assert.Len(t, cmd.Classpath, 2)
}

func TestCommand_Line(t *testing.T) {
	cmd := &Command{
		RuntimePath: "kotlin",
		KotlinOpts:  "-J-Xmx1g",
		Classpath:   []string{"/cache/hello.d.jar", "/opt/kotlin/lib/kotlin-stdlib.jar"},
		EntryClass:  "Main_Hello",
		Args:        []string{"arg1", "arg2"},
	}

	sep := string(os.PathListSeparator)
	expected := "kotlin -J-Xmx1g -classpath /cache/hello.d.jar" + sep + "/opt/kotlin/lib/kotlin-stdlib.jar Main_Hello arg1 arg2"
	assert.Equal(t, expected, cmd.Line())
}

func TestCommand_LineWithoutOpts(t *testing.T) {
	cmd := &Command{
		RuntimePath: "kotlin",
		Classpath:   []string{"/cache/hello.d.jar"},
		EntryClass:  "HelloKt",
	}

	line := cmd.Line()
	assert.Equal(t, "kotlin -classpath /cache/hello.d.jar HelloKt", line)
	assert.False(t, strings.Contains(line, "  "), "no double spaces from empty option slots")
}

func TestForwardedArgs(t *testing.T) {
	argv := []string{"krun", "--verbose", "hello.kts", "--verbose", "a", "b"}

	assert.Equal(t, []string{"--verbose", "a", "b"}, ForwardedArgs(argv, "hello.kts"),
		"everything strictly after the first occurrence of the reference belongs to the script")
	assert.Empty(t, ForwardedArgs(argv, "missing.kts"))
	assert.Empty(t, ForwardedArgs([]string{"krun", "hello.kts"}, "hello.kts"))
}
