package models

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidDeviceID indicates a raw identifier that cannot be canonicalized.
var ErrInvalidDeviceID = errors.New("invalid device identifier")

// NormalizeDeviceID canonicalizes a raw device identifier into the form used
// as the storage key: surrounding whitespace removed, first rune upper-cased,
// the remainder lower-cased. The function is pure and idempotent:
// NormalizeDeviceID(NormalizeDeviceID(x)) == NormalizeDeviceID(x).
func NormalizeDeviceID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrInvalidDeviceID
	}

	if !utf8.ValidString(id) {
		return "", ErrInvalidDeviceID
	}

	first, size := utf8.DecodeRuneInString(id)
	rest := strings.ToLower(id[size:])

	return string(unicode.ToUpper(first)) + rest, nil
}
