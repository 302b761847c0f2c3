package script

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/krun-dev/krun/internal/checksum"
)

// PolicyFetchOnce names the URL caching policy: a remote script is fetched
// exactly once, keyed by the digest of the URL string itself, and the cached
// copy is reused forever even if the remote content changes. This pins a
// URL-referenced script for reproducibility; refreshing requires clearing
// the cache.
const PolicyFetchOnce = true

const (
	scriptletPrefix = "scriptlet_"
	urlCachePrefix  = "urlkts_cache_"
)

// supportPreamble is prepended to recognized one-line snippets so that the
// text-processing shorthands resolve without an explicit declaration.
const supportPreamble = "//DEPS com.github.holgerbrandl:kscript-support:1.2.5\n" +
	"import kscript.text.*\n"

// shorthandTokens are the leading tokens of a one-line snippet that trigger
// the support preamble.
var shorthandTokens = []string{"lines", "stdin", "args"}

// ResolutionError reports a script reference that no resolution rule could
// turn into a readable source file.
type ResolutionError struct {
	Ref    string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("failed to resolve script %q: %s", e.Ref, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolver turns raw script references into resolved sources. Materialized
// scriptlets and URL fetches land in CacheDir.
type Resolver struct {
	CacheDir string

	// Stdin is consumed when the reference is the stdin marker.
	Stdin io.Reader

	// Client performs URL fetches.
	Client *http.Client
}

// NewResolver creates a resolver writing materialized sources to cacheDir.
func NewResolver(cacheDir string) *Resolver {
	return &Resolver{
		CacheDir: cacheDir,
		Stdin:    os.Stdin,
		Client:   http.DefaultClient,
	}
}

// Resolve evaluates the resolution rules in priority order:
// existing local file, stdin marker, HTTP(S) URL, inline snippet.
func (r *Resolver) Resolve(ref string) (*Source, error) {
	if info, err := os.Stat(ref); err == nil && info.Mode().IsRegular() {
		return r.resolveFile(ref)
	}

	if ref == "-" || ref == "/dev/stdin" {
		return r.resolveStdin(ref)
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return r.resolveURL(ref)
	}

	if !strings.HasSuffix(ref, scriptExt) && !strings.HasSuffix(ref, classExt) {
		return r.resolveInline(ref)
	}

	return nil, &ResolutionError{Ref: ref, Reason: "no such file"}
}

// resolveFile uses an existing local file as-is, without copying it into the
// cache. The digest comes from the file's bytes.
func (r *Resolver) resolveFile(ref string) (*Source, error) {
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, &ResolutionError{Ref: ref, Reason: "failed to resolve absolute path", Err: err}
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, &ResolutionError{Ref: ref, Reason: "file is not readable", Err: err}
	}

	return &Source{
		Kind:    KindFile,
		RawRef:  ref,
		Path:    abs,
		Content: content,
		Digest:  checksum.Bytes(content),
	}, nil
}

func (r *Resolver) resolveStdin(ref string) (*Source, error) {
	raw, err := io.ReadAll(r.Stdin)
	if err != nil {
		return nil, &ResolutionError{Ref: ref, Reason: "failed to read stdin", Err: err}
	}

	src, err := r.materialize(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, &ResolutionError{Ref: ref, Reason: "failed to materialize stdin script", Err: err}
	}

	src.Kind = KindStdin
	src.RawRef = ref

	return src, nil
}

// resolveURL fetches a remote script once and keeps the copy forever,
// keyed by the digest of the URL string (see PolicyFetchOnce).
func (r *Resolver) resolveURL(ref string) (*Source, error) {
	name := urlCachePrefix + checksum.Text(ref) + scriptExt
	path := filepath.Join(r.CacheDir, name)

	if _, err := os.Stat(path); err != nil {
		if err := r.fetch(ref, path); err != nil {
			return nil, err
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResolutionError{Ref: ref, Reason: "failed to read cached fetch", Err: err}
	}

	return &Source{
		Kind:    KindURL,
		RawRef:  ref,
		Path:    path,
		Content: content,
		Digest:  checksum.Bytes(content),
	}, nil
}

func (r *Resolver) fetch(ref, path string) error {
	resp, err := r.Client.Get(ref)
	if err != nil {
		return &ResolutionError{Ref: ref, Reason: "failed to fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ResolutionError{Ref: ref, Reason: fmt.Sprintf("fetch returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ResolutionError{Ref: ref, Reason: "failed to read fetch body", Err: err}
	}

	if err := writeFileAtomic(path, body); err != nil {
		return &ResolutionError{Ref: ref, Reason: "failed to cache fetch", Err: err}
	}

	return nil
}

// resolveInline treats the reference text itself as script code. A one-line
// snippet beginning with a recognized shorthand token gets the support
// preamble prepended before materialization.
func (r *Resolver) resolveInline(ref string) (*Source, error) {
	text := strings.TrimSpace(ref)
	if isShorthand(text) {
		text = supportPreamble + text
	}

	src, err := r.materialize(text)
	if err != nil {
		return nil, &ResolutionError{Ref: ref, Reason: "failed to materialize inline script", Err: err}
	}

	src.Kind = KindInline
	src.RawRef = ref

	return src, nil
}

func isShorthand(text string) bool {
	if strings.Contains(text, "\n") {
		return false
	}

	first := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '.' || r == '('
	})
	if len(first) == 0 {
		return false
	}

	for _, token := range shorthandTokens {
		if first[0] == token {
			return true
		}
	}

	return false
}

// materialize writes script text to its digest-derived cache path. The write
// is idempotent: an existing file is trusted and never rewritten, so the
// same text always resolves to the same path with the same content.
func (r *Resolver) materialize(text string) (*Source, error) {
	digest := checksum.Text(text)
	path := filepath.Join(r.CacheDir, scriptletPrefix+digest+scriptExt)

	if _, err := os.Stat(path); err != nil {
		if err := writeFileAtomic(path, []byte(text)); err != nil {
			return nil, err
		}
	}

	return &Source{
		Path:    path,
		Content: []byte(text),
		Digest:  digest,
	}, nil
}

// writeFileAtomic writes to a temporary sibling and renames into place, so a
// concurrent reader never observes a partially written file.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit temp file: %w", err)
	}

	return nil
}
