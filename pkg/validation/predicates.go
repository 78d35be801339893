package validation

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ukPostcodePattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]? ?[0-9][A-Z]{2}$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	ukMobilePattern   = regexp.MustCompile(`^(\+44\s?7\d{3}|\(?07\d{3}\)?)\s?\d{3}\s?\d{3}$`)
	lettersPattern    = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// IsBlank reports whether s is empty once surrounding whitespace is removed.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MinLength reports whether the trimmed value has at least n characters.
func MinLength(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
}

// LettersAndSpaces reports whether the trimmed value only holds ASCII letters
// and whitespace.
func LettersAndSpaces(s string) bool {
	return lettersPattern.MatchString(strings.TrimSpace(s))
}

// UKPostcode validates a UK postcode. Case and whitespace are ignored, so
// "sw1a 1aa" and "SW1A1AA" are both accepted.
func UKPostcode(s string) bool {
	if IsBlank(s) {
		return false
	}
	return ukPostcodePattern.MatchString(stripSpaces(strings.ToUpper(s)))
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// UKMobile reports whether s is a UK mobile number in national (07...) or
// international (+44 7...) form. Whitespace is ignored.
func UKMobile(s string) bool {
	return ukMobilePattern.MatchString(stripSpaces(s))
}

// EmailOrUKPhone accepts either an email address or a UK mobile number.
func EmailOrUKPhone(s string) bool {
	if IsBlank(s) {
		return false
	}
	return Email(s) || UKMobile(s)
}

// ParseNumber parses a numeric form value. Surrounding whitespace is ignored;
// NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// PositiveNumber reports whether s parses as a number strictly greater than 0.
func PositiveNumber(s string) bool {
	value, ok := ParseNumber(s)
	return ok && value > 0
}

// MinNumber reports whether s parses as a number greater than or equal to
// threshold.
func MinNumber(s string, threshold float64) bool {
	value, ok := ParseNumber(s)
	return ok && value >= threshold
}

// NonEmptySet reports whether at least one non-blank item is selected.
func NonEmptySet(items []string) bool {
	for _, item := range items {
		if !IsBlank(item) {
			return true
		}
	}
	return false
}

// OneOf reports whether s is exactly one of the allowed values.
func OneOf(s string, allowed []string) bool {
	return slices.Contains(allowed, s)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
