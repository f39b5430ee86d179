package github

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// minDecodedKeyLength guards the base64 detection: anything that decodes to
// fewer bytes than this is too short to be a PEM-encoded RSA key, so the raw
// value is used instead.
const minDecodedKeyLength = 500

var base64KeyPattern = regexp.MustCompile(`^[A-Za-z0-9+/=\r\n]+$`)

// NormalizePrivateKey turns the configured private key value into PEM text.
//
// Deployment environments hand the key over in one of two shapes: raw PEM
// (possibly with literal `\n` sequences instead of real newlines) or a
// base64-encoded PEM blob. Detection is best-effort: a value made up entirely
// of base64 characters that decodes to a key-sized payload is treated as
// encoded. Anything else, including a failed decode, falls back to the raw
// value with `\n` escapes expanded.
func NormalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if base64KeyPattern.MatchString(trimmed) {
		if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) > minDecodedKeyLength {
			return string(decoded)
		}
	}
	return strings.ReplaceAll(value, `\n`, "\n")
}
