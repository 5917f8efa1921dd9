package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GitignorePatterns reads dir/.gitignore and converts its rules into
// doublestar exclusion globs. Negated rules are skipped. A missing file
// yields no patterns.
func GitignorePatterns(dir string) ([]string, error) {
	file, err := os.Open(filepath.Join(dir, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open .gitignore: %w", err)
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if glob := gitignoreGlob(scanner.Text()); glob != "" {
			patterns = append(patterns, glob)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}
	return patterns, nil
}

// gitignoreGlob converts one .gitignore line into a glob, or "" when the
// line carries no exclusion
func gitignoreGlob(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return ""
	}

	directory := strings.HasSuffix(line, "/")
	line = strings.TrimSuffix(line, "/")
	// a slash anywhere but the end anchors the rule to the root
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ""
	}

	glob := line
	if !anchored {
		glob = "**/" + line
	}
	if directory {
		glob += "/**"
	}
	return glob
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrences
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
