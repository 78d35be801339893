package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/model"
)

// ErrMalformed reports a stored value that cannot be decoded for its field
// type. DecodeValue still returns the zero value alongside it.
var ErrMalformed = errors.New("storage: malformed value")

// EncodeValue converts a form value into its stored form. Strings are kept
// raw; sets and flags are JSON encoded.
func EncodeValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case []string:
		if v == nil {
			v = []string{}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("storage: encode set: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("storage: cannot encode %T", value)
	}
}

// DecodeValue restores a stored value. Missing or malformed sets decode to an
// empty set and malformed flags to false, as if nothing had been stored.
func DecodeValue(fieldType model.FieldType, raw string) (any, error) {
	switch fieldType {
	case model.FieldTypeSet:
		if strings.TrimSpace(raw) == "" {
			return []string{}, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return []string{}, fmt.Errorf("%w: set %q", ErrMalformed, raw)
		}
		if out == nil {
			out = []string{}
		}
		return out, nil
	case model.FieldTypeBoolean:
		if strings.TrimSpace(raw) == "" {
			return false, nil
		}
		var out bool
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return false, fmt.Errorf("%w: flag %q", ErrMalformed, raw)
		}
		return out, nil
	default:
		return raw, nil
	}
}
