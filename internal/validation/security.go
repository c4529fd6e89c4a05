// Package validation provides input checks shared by the configuration
// validator and the runner: project-relative paths, binary names and
// command arguments.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

var shellMetacharacters = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\\", "\"", "'"}

// ValidateProjectPath checks a path meant to stay inside the project root:
// non-empty, relative, free of parent-directory references and of shell
// metacharacters.
func ValidateProjectPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if filepath.IsAbs(path) {
		return fmt.Errorf("path must be relative to the project root: %s", path)
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	for _, char := range shellMetacharacters {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateBinaryName checks that name is a bare executable name: no path
// separators, no traversal, no shell metacharacters.
func ValidateBinaryName(name string) error {
	if name == "" {
		return fmt.Errorf("binary name cannot be empty")
	}

	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("binary name must not contain path separators: %s", name)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("invalid binary name: %s", name)
	}

	for _, char := range shellMetacharacters {
		if strings.Contains(name, char) {
			return fmt.Errorf("binary name contains dangerous character: %s", char)
		}
	}

	if strings.ContainsAny(name, " \t\n\r\x00") {
		return fmt.Errorf("binary name contains whitespace or control characters: %q", name)
	}

	return nil
}

// ValidateArgument rejects arguments carrying NUL bytes, which cannot be
// passed to a child process.
func ValidateArgument(arg string) error {
	if strings.ContainsRune(arg, 0) {
		return fmt.Errorf("argument contains NUL byte")
	}
	return nil
}
