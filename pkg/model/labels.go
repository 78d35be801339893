package model

import (
	"regexp"
	"strings"
)

var labelSeparators = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabel turns a storage-style field name (companyName, floor_area) into
// a display label (Company name, Floor area).
func DefaultLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	var words []string
	for _, chunk := range labelSeparators.Split(name, -1) {
		if chunk == "" {
			continue
		}
		words = append(words, splitCamel(chunk)...)
	}
	if len(words) == 0 {
		return ""
	}

	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

func splitCamel(input string) []string {
	var (
		out   []string
		start int
	)
	for i := 1; i < len(input); i++ {
		prev, cur := input[i-1], input[i]
		if (isLower(prev) && isUpper(cur)) || (isLetter(prev) && isDigit(cur)) || (isDigit(prev) && isLetter(cur)) {
			out = append(out, input[start:i])
			start = i
		}
	}
	return append(out, input[start:])
}

func isUpper(b byte) bool  { return b >= 'A' && b <= 'Z' }
func isLower(b byte) bool  { return b >= 'a' && b <= 'z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return isUpper(b) || isLower(b) }
