package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-grantforms/pkg/model"
)

// RuleFunc checks a single rule against a field value. It returns an empty
// string when the value passes, otherwise the default failure message. The
// rule's own Message, when set, replaces the returned text.
type RuleFunc func(field model.Field, rule model.ValidationRule, value any) string

var (
	rulesMu sync.RWMutex
	rules   = map[string]RuleFunc{
		model.ValidationRuleRequired:  requiredRule,
		model.ValidationRuleMinLength: minLengthRule,
		model.ValidationRulePattern:   patternRule,
		model.ValidationRulePostcode:  postcodeRule,
		model.ValidationRuleContact:   contactRule,
		model.ValidationRuleEnum:      enumRule,
		model.ValidationRulePositive:  positiveRule,
		model.ValidationRuleMin:       minRule,
		model.ValidationRuleNonEmpty:  nonEmptyRule,
	}

	patternCache sync.Map
)

// Register adds or replaces a rule implementation.
func Register(kind string, fn RuleFunc) error {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("validation: rule kind is required")
	}
	if fn == nil {
		return fmt.Errorf("validation: rule %q has no implementation", kind)
	}
	rulesMu.Lock()
	defer rulesMu.Unlock()
	rules[kind] = fn
	return nil
}

// Lookup returns the implementation registered for kind.
func Lookup(kind string) (RuleFunc, bool) {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	fn, ok := rules[kind]
	return fn, ok
}

// Kinds lists the registered rule kinds in sorted order.
func Kinds() []string {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	out := make([]string, 0, len(rules))
	for kind := range rules {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// CompilePattern compiles (and caches) the expression used by pattern rules.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("validation: compile pattern %q: %w", expr, err)
	}
	patternCache.Store(expr, re)
	return re, nil
}

func requiredRule(field model.Field, _ model.ValidationRule, value any) string {
	if !isEmpty(field, value) {
		return ""
	}
	switch {
	case field.Type == model.FieldTypeSet:
		return "Please select at least one option"
	case field.Type == model.FieldTypeBoolean:
		return fmt.Sprintf("%s must be accepted", label(field))
	case len(field.Options) > 0:
		return fmt.Sprintf("Please select %s", lowerLabel(field))
	default:
		return fmt.Sprintf("%s is required", label(field))
	}
}

func minLengthRule(field model.Field, rule model.ValidationRule, value any) string {
	n, err := strconv.Atoi(rule.Param("value"))
	if err != nil || n <= 0 {
		return ""
	}
	if MinLength(AsString(value), n) {
		return ""
	}
	return fmt.Sprintf("%s must be at least %d characters", label(field), n)
}

func patternRule(field model.Field, rule model.ValidationRule, value any) string {
	expr := rule.Param("pattern")
	if expr == "" {
		return ""
	}
	re, err := CompilePattern(expr)
	if err != nil {
		return fmt.Sprintf("%s cannot be checked", label(field))
	}
	if re.MatchString(strings.TrimSpace(AsString(value))) {
		return ""
	}
	return fmt.Sprintf("%s is not in the expected format", label(field))
}

func postcodeRule(_ model.Field, _ model.ValidationRule, value any) string {
	if UKPostcode(AsString(value)) {
		return ""
	}
	return "Please enter a valid UK postcode"
}

func contactRule(_ model.Field, _ model.ValidationRule, value any) string {
	if EmailOrUKPhone(AsString(value)) {
		return ""
	}
	return "Please enter a valid email or UK phone number"
}

func enumRule(field model.Field, rule model.ValidationRule, value any) string {
	allowed := field.OptionValues()
	if raw := rule.Param("values"); raw != "" {
		allowed = splitList(raw)
	}
	if field.Type == model.FieldTypeSet {
		for _, item := range AsSet(value) {
			if !OneOf(item, allowed) {
				return fmt.Sprintf("Please select a valid %s", lowerLabel(field))
			}
		}
		return ""
	}
	if OneOf(AsString(value), allowed) {
		return ""
	}
	return fmt.Sprintf("Please select a valid %s", lowerLabel(field))
}

func positiveRule(field model.Field, _ model.ValidationRule, value any) string {
	if PositiveNumber(AsString(value)) {
		return ""
	}
	return fmt.Sprintf("Please enter a valid %s", lowerLabel(field))
}

func minRule(field model.Field, rule model.ValidationRule, value any) string {
	threshold, err := strconv.ParseFloat(rule.Param("value"), 64)
	if err != nil {
		return ""
	}
	if MinNumber(AsString(value), threshold) {
		return ""
	}
	return fmt.Sprintf("%s must be at least %s", label(field), rule.Param("value"))
}

func nonEmptyRule(_ model.Field, _ model.ValidationRule, value any) string {
	if NonEmptySet(AsSet(value)) {
		return ""
	}
	return "Please select at least one option"
}

func label(field model.Field) string {
	if l := strings.TrimSpace(field.Label); l != "" {
		return l
	}
	return model.DefaultLabel(field.Name)
}

func lowerLabel(field model.Field) string {
	l := label(field)
	if l == "" {
		return "value"
	}
	return strings.ToLower(l[:1]) + l[1:]
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
