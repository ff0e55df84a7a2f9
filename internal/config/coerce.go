// internal/config/coerce.go
//
// Pure raw-value coercions.
//
// Raw values arrive as strings from the environment and the .env file, or as
// native YAML scalars and sequences from the optional config file.  Each
// coerceX returns the typed value or an error wrapping one of the Err*
// kinds; the resolver turns that into a *FieldError.

package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func coerceString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fail(ErrTypeCoercion, "unsupported %T", raw)
	}
}

func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fail(ErrTypeCoercion, "%v", err)
		}
		return n, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, fail(ErrTypeCoercion, "%d overflows int", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fail(ErrTypeCoercion, "%v is not a whole number", v)
		}
		return int(v), nil
	default:
		return 0, fail(ErrTypeCoercion, "unsupported %T", raw)
	}
}

// Accepted boolean spellings, compared case-insensitively.
var (
	trueWords  = map[string]bool{"true": true, "1": true, "yes": true, "y": true, "on": true, "t": true}
	falseWords = map[string]bool{"false": true, "0": true, "no": true, "n": true, "off": true, "f": true}
)

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch {
		case trueWords[s]:
			return true, nil
		case falseWords[s]:
			return false, nil
		}
		return false, fail(ErrTypeCoercion, "%q is not a boolean", v)
	case int:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
		return false, fail(ErrTypeCoercion, "%d is not a boolean", v)
	default:
		return false, fail(ErrTypeCoercion, "unsupported %T", raw)
	}
}

// coerceList accepts a native sequence or a string.  A string starting with
// "[" is parsed as a list literal (JSON or YAML flow style) and a literal that
// does not parse is a coercion error; any other string is split on commas with
// each item trimmed.  Empty items are kept.
func coerceList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fail(ErrMalformedList, "item %d is %T, not a string", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if strings.HasPrefix(v, "[") {
			var out []string
			if err := yaml.Unmarshal([]byte(v), &out); err != nil {
				return nil, fail(ErrTypeCoercion, "%v", err)
			}
			if out == nil {
				out = []string{}
			}
			return out, nil
		}
		return splitList(v), nil
	default:
		return nil, fail(ErrMalformedList, "unsupported %T", raw)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// coerceError carries a kind for errors.Is and a detail for the message.
type coerceError struct {
	kind   error
	detail string
}

func (e *coerceError) Error() string { return e.detail }
func (e *coerceError) Unwrap() error { return e.kind }

func fail(kind error, format string, args ...any) error {
	return &coerceError{kind: kind, detail: fmt.Sprintf(format, args...)}
}
