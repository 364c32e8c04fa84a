package writer

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
)

// Paths starting with an ignored prefix or containing an ignored fragment
// are never recorded.
var (
	IgnoredPrefixes  = []string{"<internal:"}
	IgnoredFragments = []string{"lib/ruby", "gems/"}
)

// PathFilter decides which source paths are recorded.
type PathFilter struct {
	prefixes  []string
	fragments []string
	globs     []string
	skipped   atomic.Uint64
}

// NewPathFilter builds a filter from the default denylist, the recorder's
// own source tree and extra patterns. Patterns with glob metacharacters are
// matched against the full path and the base name; others match as
// substrings.
func NewPathFilter(extra []string) *PathFilter {
	f := &PathFilter{prefixes: append([]string(nil), IgnoredPrefixes...)}
	if dir := sourceRoot(); dir != "" {
		f.prefixes = append(f.prefixes, dir+string(filepath.Separator))
	}
	for _, p := range append(append([]string(nil), IgnoredFragments...), extra...) {
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, "*?[") {
			f.globs = append(f.globs, p)
		} else {
			f.fragments = append(f.fragments, p)
		}
	}
	return f
}

// Excluded reports whether events at path are dropped.
func (f *PathFilter) Excluded(path string) bool {
	for _, p := range f.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, frag := range f.fragments {
		if strings.Contains(path, frag) {
			return true
		}
	}
	for _, g := range f.globs {
		if ok, _ := filepath.Match(g, path); ok {
			return true
		}
		if ok, _ := filepath.Match(g, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// skip counts one event dropped for its path.
func (f *PathFilter) skip() {
	f.skipped.Add(1)
	filteredTotal.Inc()
}

// Skipped returns how many events were dropped for their path.
func (f *PathFilter) Skipped() uint64 { return f.skipped.Load() }

// sourceRoot is the recorder's internal/ directory.
func sourceRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(filepath.Dir(file))
}
