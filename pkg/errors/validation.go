package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// supportedSchemes lists the URL schemes a dataset location may use.
// Bare filesystem paths are accepted separately by ValidateDatasetURL.
var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
	"mem":   true,
	"gs":    true,
	"s3":    true,
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateDatasetURL validates the location of a Zarr dataset.
//
// Accepted forms:
//   - http(s)://host/path
//   - file:///abs/path, mem://bucket, gs://bucket/prefix, s3://bucket/prefix
//   - a bare filesystem path (relative or absolute)
//
// Control characters are rejected in every form.
func ValidateDatasetURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return New(ErrCodeInvalidInput, "dataset URL cannot be empty")
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "dataset URL contains control characters")
		}
	}

	i := strings.Index(raw, "://")
	if i < 0 {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid dataset URL %q", raw)
	}
	if !supportedSchemes[u.Scheme] {
		return New(ErrCodeUnsupported, "unsupported URL scheme %q", u.Scheme)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", raw)
	}
	return nil
}

// ValidateKey validates a store key (a slash separated path relative to a
// dataset root). It prevents path traversal out of the dataset.
//
// Validation rules:
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute keys
//   - No ".." path segments
//   - No backslashes
func ValidateKey(key string) error {
	const maxKeyLength = 500
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidPath, "key too long (max %d characters)", maxKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "key contains invalid characters")
		}
	}

	if strings.HasPrefix(key, "/") {
		return New(ErrCodeInvalidPath, "key must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "key cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(key, "\\") {
		return New(ErrCodeInvalidPath, "key cannot contain backslashes")
	}

	return nil
}
