package compiler

import (
	"fmt"
	"strings"

	"github.com/krun-dev/krun/internal/script"
)

// WrapperSource renders the fixed-template entry wrapper for a script-kind
// source. Compiled .kts units expose a class with an argument-taking
// constructor rather than a static main, so the wrapper loads that class by
// name and invokes the constructor reflectively with the forwarded
// arguments.
func WrapperSource(src *script.Source, dirs *script.Directives) string {
	className := script.ClassName(src.BaseName())
	wrapperName := script.WrapperClassName(src.BaseName())

	qualified := className
	if dirs.Package != "" {
		qualified = dirs.Package + "." + className
	}

	var b strings.Builder
	if dirs.Package != "" {
		fmt.Fprintf(&b, "package %s\n\n", dirs.Package)
	}

	fmt.Fprintf(&b, `class %s {
    companion object {
        @JvmStatic
        fun main(args: Array<String>) {
            val scriptClass = %s::class.java.classLoader.loadClass("%s")
            scriptClass.getDeclaredConstructor(Array<String>::class.java).newInstance(args)
        }
    }
}
`, wrapperName, wrapperName, qualified)

	return b.String()
}
