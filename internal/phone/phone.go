// Package phone turns raw phone strings into comparable identity keys.
package phone

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchDigits is the number of trailing digits compared when matching an
// inbound caller ID against a stored number.
const MatchDigits = 8

// Normalize strips every rune that is not a decimal digit and returns the
// remaining digits in their original order. Digits from any script are mapped
// to ASCII so "５５５", "٥٥٥" and "555" normalize identically.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if d, ok := digitValue(r); ok {
			b.WriteByte('0' + d)
		}
	}
	return b.String()
}

// digitValue returns the numeric value of a decimal digit rune. Unicode lays
// out every Nd digit set as a contiguous run starting at zero, so the value is
// the offset into its range modulo 10.
func digitValue(r rune) (byte, bool) {
	if r >= '0' && r <= '9' {
		return byte(r - '0'), true
	}
	if r < utf8.RuneSelf || !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	for _, rng := range unicode.Nd.R16 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return byte((r - lo) / rune(rng.Stride) % 10), true
		}
	}
	for _, rng := range unicode.Nd.R32 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return byte((r - lo) / rune(rng.Stride) % 10), true
		}
	}
	return 0, false
}

// Suffix returns the last n digits of a normalized number, or the whole
// number when it is shorter than n.
func Suffix(normalized string, n int) string {
	digits := []rune(normalized)
	if n <= 0 || len(digits) <= n {
		return normalized
	}
	return string(digits[len(digits)-n:])
}

// SuffixMatch reports whether target ends with the last MatchDigits digits of
// stored. Both arguments may be raw; they are normalized here. An empty stored
// number never matches.
//
// Distinct numbers sharing a local-number suffix (same last 8 digits under
// different area or country codes) match each other.
func SuffixMatch(target, stored string) bool {
	s := Normalize(stored)
	if s == "" {
		return false
	}
	return strings.HasSuffix(Normalize(target), Suffix(s, MatchDigits))
}
