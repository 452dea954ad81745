// Package dotbin locates Graphviz dot executables bundled with a
// distribution. The vendor directory is treated as read-only and immutable
// after installation, so discovery results are cached per Locator;
// constructing a new Locator is the explicit way to rescan.
package dotbin

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// binaryNames are the file names recognized as renderer executables.
var binaryNames = map[string]bool{"dot": true, "dot.exe": true}

// Locator discovers vendored dot binaries under a root directory.
type Locator struct {
	root string
	goos string

	once  sync.Once
	found []string
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithGOOS overrides the host platform used by [Locator.Preferred].
// Tests use this to force non-Windows behavior regardless of the host.
func WithGOOS(goos string) LocatorOption {
	return func(l *Locator) { l.goos = goos }
}

// NewLocator creates a Locator over root.
func NewLocator(root string, opts ...LocatorOption) *Locator {
	l := &Locator{root: root, goos: runtime.GOOS}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the vendor directory this locator scans.
func (l *Locator) Root() string { return l.root }

// Discover returns every vendored dot binary under the root, sorted
// lexicographically by resolved path. Symbolic links are resolved,
// candidates deduplicated by resolved path, and non-regular files skipped.
// The scan runs once per Locator; later calls return the cached result.
// A missing or unreadable root yields an empty list, not an error.
func (l *Locator) Discover() []string {
	l.once.Do(func() { l.found = l.scan() })
	return l.found
}

func (l *Locator) scan() []string {
	if l.root == "" {
		return nil
	}

	seen := make(map[string]bool)
	var found []string

	_ = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() || !binaryNames[d.Name()] {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		info, err := os.Stat(resolved)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if seen[resolved] {
			return nil
		}
		seen[resolved] = true
		found = append(found, resolved)
		return nil
	})

	sort.Strings(found)
	return found
}

// Preferred returns the vendored binary to use, or "" when none qualifies.
//
// With windowsOnly set (the default posture: vendored binaries are Windows
// artifacts and other platforms are expected to have a system dot on PATH),
// a non-Windows host always gets ""; on Windows the first candidate with an
// .exe suffix wins. With windowsOnly false the first candidate in sorted
// order is returned regardless of suffix.
func (l *Locator) Preferred(windowsOnly bool) string {
	if windowsOnly && l.goos != "windows" {
		return ""
	}

	binaries := l.Discover()
	if len(binaries) == 0 {
		return ""
	}

	if windowsOnly {
		for _, candidate := range binaries {
			if strings.EqualFold(filepath.Ext(candidate), ".exe") {
				return candidate
			}
		}
		return ""
	}

	return binaries[0]
}
