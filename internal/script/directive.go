package script

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// Directive markers. The keyword must follow the comment marker with no
// intervening whitespace; anything that looks like a spaced-out variant is
// rejected as a typo rather than silently ignored.
const (
	depsMarker   = "//DEPS"
	optsMarker   = "//KOTLIN_OPTS"
	entryMarker  = "//ENTRY"
	packageWord  = "package "
	markerDetect = `^//\s+(DEPS|KOTLIN_OPTS|ENTRY)\b`
)

var typoPattern = regexp.MustCompile(markerDetect)

// DirectiveError reports malformed directive syntax or a directive used on
// a source kind that does not permit it.
type DirectiveError struct {
	Line   string
	Reason string
}

func (e *DirectiveError) Error() string {
	if e.Line == "" {
		return "directive error: " + e.Reason
	}

	return fmt.Sprintf("directive error in line %q: %s", e.Line, e.Reason)
}

// Directives is the structured build configuration extracted from source
// text. Dependency coordinates keep declaration order and duplicates.
type Directives struct {
	// Deps are the declared dependency coordinates, in order.
	Deps []string

	// KotlinOpts is the concatenation of all KOTLIN_OPTS lines, forwarded
	// verbatim to the runtime invocation.
	KotlinOpts string

	// Entry is the ENTRY override, permitted only for class-kind sources.
	Entry string

	// Package is the source's package declaration, dot-qualified prefix for
	// entry-class derivation.
	Package string
}

// ParseDirectives scans the source line by line for recognized directive
// prefixes and the package declaration.
func ParseDirectives(src *Source) (*Directives, error) {
	d := &Directives{}
	var opts []string

	scanner := bufio.NewScanner(bytes.NewReader(src.Content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if typoPattern.MatchString(line) {
			return nil, &DirectiveError{Line: line, Reason: "whitespace between comment marker and keyword"}
		}

		switch {
		case isDirective(line, depsMarker):
			coords, err := parseDeps(line)
			if err != nil {
				return nil, err
			}
			d.Deps = append(d.Deps, coords...)

		case isDirective(line, optsMarker):
			opts = append(opts, strings.Fields(tail(line, optsMarker))...)

		case isDirective(line, entryMarker):
			if src.IsScript() {
				return nil, &DirectiveError{Line: line, Reason: "ENTRY is only permitted for class-kind (.kt) sources"}
			}
			if d.Entry != "" {
				return nil, &DirectiveError{Line: line, Reason: "duplicate ENTRY directive"}
			}
			fields := strings.Fields(tail(line, entryMarker))
			if len(fields) == 0 {
				return nil, &DirectiveError{Line: line, Reason: "missing entry class name"}
			}
			d.Entry = fields[0]

		case d.Package == "" && strings.HasPrefix(line, packageWord):
			name := strings.TrimSpace(strings.TrimPrefix(line, packageWord))
			d.Package = strings.TrimSuffix(name, ";")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &DirectiveError{Reason: "failed to scan source: " + err.Error()}
	}

	d.KotlinOpts = strings.Join(opts, " ")

	return d, nil
}

func isDirective(line, marker string) bool {
	return line == marker || strings.HasPrefix(line, marker+" ") || strings.HasPrefix(line, marker+"\t")
}

func tail(line, marker string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, marker))
}

// parseDeps splits the directive tail on ';', ',' and whitespace into the
// ordered coordinate list. Segments are trimmed; empty segments produced by
// the splitting are dropped; duplicates are kept.
func parseDeps(line string) ([]string, error) {
	t := tail(line, depsMarker)
	if t == "" {
		return nil, &DirectiveError{Line: line, Reason: "missing dependency coordinates"}
	}

	coords := strings.FieldsFunc(t, func(r rune) bool {
		return r == ';' || r == ',' || r == ' ' || r == '\t'
	})

	for i, c := range coords {
		coords[i] = strings.TrimSpace(c)
	}

	return coords, nil
}
