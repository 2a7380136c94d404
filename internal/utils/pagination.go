// Package utils provides small helpers shared by the HTTP layer that carry
// no domain logic.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a decimal int, returning def when s is empty or
// malformed. Surrounding whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Limit reads a ?limit= style value: blank, malformed or non-positive input
// yields def, and anything above max is clamped to max.
func Limit(raw string, def, max int) int {
	n := AtoiDefault(strings.TrimSpace(raw), def)
	switch {
	case n <= 0:
		return def
	case n > max:
		return max
	}
	return n
}
