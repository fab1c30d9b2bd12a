// Package icons manages the local Azure architecture icon library:
// downloading the official Microsoft icon bundle, extracting the SVGs the
// type registry references, and resolving icon file paths for renderers.
package icons

import (
	"os"
	"path/filepath"
)

// DefaultURL is the official Microsoft Azure Architecture Icons bundle.
const DefaultURL = "https://arch-center.azureedge.net/icons/Azure_Public_Service_Icons_V18.zip"

// Library resolves icon filenames to paths under a local directory.
type Library struct {
	dir string
}

// NewLibrary creates a library rooted at dir. The directory does not need
// to exist yet; lookups against an empty library simply miss.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the library's root directory.
func (l *Library) Dir() string { return l.dir }

// Path returns the full path of an icon file and whether it exists.
func (l *Library) Path(iconFile string) (string, bool) {
	if iconFile == "" {
		return "", false
	}
	path := filepath.Join(l.dir, iconFile)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Available reports whether any icons have been downloaded.
func (l *Library) Available() bool {
	entries, err := os.ReadDir(l.dir)
	return err == nil && len(entries) > 0
}
