package render

import (
	"maps"
	"slices"
	"strings"
)

// MergeFormErrors joins the messages shown above a form, trimmed and without
// repeats, keeping first-seen order.
func MergeFormErrors(existing []string, extras ...string) []string {
	return dedupe(slices.Concat(existing, extras))
}

// SummariseFieldErrors lists inline field errors in form order for the banner
// above a rejected form. Fields outside order follow alphabetically.
func SummariseFieldErrors(errs map[string]string, order []string) []string {
	if len(errs) == 0 {
		return nil
	}
	messages := make([]string, 0, len(errs))
	for _, name := range order {
		if msg, ok := errs[name]; ok {
			messages = append(messages, msg)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(errs)) {
		if !slices.Contains(order, name) {
			messages = append(messages, errs[name])
		}
	}
	return dedupe(messages)
}

func dedupe(messages []string) []string {
	var out []string
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message != "" && !slices.Contains(out, message) {
			out = append(out, message)
		}
	}
	return out
}
