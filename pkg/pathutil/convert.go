// Package pathutil converts between the absolute paths relex tracks
// internally and the root-relative paths shown to users and matched
// against watch globs.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.c", "/home/user/project") → "src/main.c"
//   - ToRelative("/other/location/file.c", "/home/user/project") → "/other/location/file.c" (outside root)
//   - ToRelative("src/main.c", "/home/user/project") → "src/main.c" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	if outsideRoot(relPath) {
		return absPath
	}

	return relPath
}

// outsideRoot reports whether a filepath.Rel result climbs out of the root.
// Names that merely start with dots, like "..notes", stay inside.
func outsideRoot(relPath string) bool {
	return relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator))
}

// GlobPath returns path relative to rootDir with forward slashes, the form
// watch globs are matched against. ok is false for paths outside rootDir.
func GlobPath(path, rootDir string) (rel string, ok bool) {
	if rootDir == "" {
		return filepath.ToSlash(path), !filepath.IsAbs(path)
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel = ToRelative(absPath, absRoot)
	if filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
