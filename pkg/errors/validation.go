package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a manager-native package name before it is
// handed to an external package manager as a command-line argument.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No leading dash (would be parsed as an option)
//   - No whitespace or control characters
//   - No path separators
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	if strings.HasPrefix(name, "-") {
		return New(ErrCodeInvalidPackage, "package name cannot start with a dash: %q", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", name)
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPackage, "package name cannot contain path separators: %q", name)
	}

	return nil
}

// ValidatePackageNames validates every name and returns the first failure.
func ValidatePackageNames(names []string) error {
	for _, name := range names {
		if err := ValidatePackageName(name); err != nil {
			return err
		}
	}
	return nil
}
