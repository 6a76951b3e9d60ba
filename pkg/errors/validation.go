package errors

import (
	"strings"
	"unicode"
)

const maxPathLength = 500

// ValidateTerm validates a user-supplied search term.
// Terms are matched as substrings, so almost anything printable is allowed;
// only empty terms, control characters and absurd lengths are rejected.
func ValidateTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return New(ErrCodeInvalidTerm, "search term cannot be empty")
	}
	if len(term) > maxPathLength {
		return New(ErrCodeInvalidTerm, "search term too long (max %d characters)", maxPathLength)
	}
	for _, r := range term {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTerm, "search term contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates an identifier path within the index namespace.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No ".." segments
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a repository URL.
// Accepted schemes are http, https, ssh, git and file, plus scp-like git@host:path.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, prefix := range []string{"http://", "https://", "ssh://", "git://", "file://", "git@"} {
		if strings.HasPrefix(rawURL, prefix) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "unsupported repository URL: %q", rawURL)
}
