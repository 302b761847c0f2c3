// Package script turns raw script references into concrete source files and
// extracts the build directives embedded in them.
package script

import (
	"path/filepath"
	"strings"
)

// Kind classifies where a script reference came from.
type Kind int

const (
	KindFile Kind = iota
	KindURL
	KindStdin
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindURL:
		return "url"
	case KindStdin:
		return "stdin"
	case KindInline:
		return "inline"
	}

	return "unknown"
}

// Source is a resolved script: a readable file on disk plus the digest of
// its content. Immutable once resolved.
type Source struct {
	// Kind records which resolution rule matched.
	Kind Kind

	// RawRef is the reference exactly as given on the command line.
	RawRef string

	// Path is the absolute path of the readable source file.
	Path string

	// Content is the source text.
	Content []byte

	// Digest is the 16-hex-character content digest.
	Digest string
}

// BaseName returns the file name without its extension, the naming root for
// cache artifacts and entry-class derivation.
func (s *Source) BaseName() string {
	name := filepath.Base(s.Path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IsScript reports whether the source is script-kind (.kts) as opposed to
// class-kind (.kt).
func (s *Source) IsScript() bool {
	return strings.HasSuffix(s.Path, scriptExt)
}

const (
	scriptExt = ".kts"
	classExt  = ".kt"
)
