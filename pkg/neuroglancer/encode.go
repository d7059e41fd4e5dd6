package neuroglancer

import (
	"strings"
)

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether b is escaped by JavaScript's
// encodeURIComponent, which leaves A-Z a-z 0-9 - _ . ! ~ * ' ( ) intact.
func shouldEscape(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return false
	}
	switch b {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	}
	return true
}

// PercentEncode escapes s the way encodeURIComponent does: every UTF-8 byte
// outside the unreserved set becomes %XX.
func PercentEncode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if shouldEscape(b) {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[b>>4])
			sb.WriteByte(upperhex[b&0x0f])
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

// EncodeFragment serializes a state and percent-encodes it as one opaque
// URL fragment.
func EncodeFragment(s *State) (string, error) {
	data, err := s.JSON()
	if err != nil {
		return "", err
	}
	return PercentEncode(string(data)), nil
}
