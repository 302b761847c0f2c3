package script

import "strings"

const wrapperPrefix = "Main_"

var classNameMangler = strings.NewReplacer(".", "_", "-", "_")

// ClassName derives the compiled class name from a source base name:
// dots and dashes become underscores and the first character is upper-cased.
func ClassName(baseName string) string {
	name := classNameMangler.Replace(baseName)
	if name == "" {
		return name
	}

	return strings.ToUpper(name[:1]) + name[1:]
}

// WrapperClassName is the name of the synthesized entry wrapper for a
// script-kind source.
func WrapperClassName(baseName string) string {
	return wrapperPrefix + ClassName(baseName)
}

// EntryClass derives the fully qualified runnable entry class. It is a pure
// function of base name, source kind, package declaration and ENTRY
// override; compiler output never feeds into it.
func EntryClass(src *Source, d *Directives) string {
	prefix := ""
	if d.Package != "" {
		prefix = d.Package + "."
	}

	if src.IsScript() {
		return prefix + WrapperClassName(src.BaseName())
	}

	if d.Entry != "" {
		return prefix + d.Entry
	}

	return prefix + ClassName(src.BaseName()) + "Kt"
}
