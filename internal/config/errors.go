// internal/config/errors.go
//
// Validation error taxonomy.
//
// Context
// -------
// Resolve never stops at the first bad field.  Each problem becomes a
// *FieldError, the resolver appends them with multierr, and the caller
// receives one *ValidationError listing all of them.  The Kind sentinels let
// callers classify problems with errors.Is on either the aggregate or a
// single FieldError.

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Problem kinds.
var (
	ErrMissingRequired = errors.New("missing required value")
	ErrTypeCoercion    = errors.New("cannot coerce value")
	ErrMalformedList   = errors.New("malformed list input")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrConstraint      = errors.New("constraint violated")
	ErrSecretLookup    = errors.New("secret lookup failed")
)

// ErrAlreadyResolved is returned by Configure once the process-wide
// configuration has been requested.
var ErrAlreadyResolved = errors.New("config: already resolved")

// FieldError describes one invalid or missing setting.
type FieldError struct {
	Key      string // environment variable name
	Raw      string // offending value, redacted for secrets; empty when missing
	Expected string // expected type or shape
	Kind     error  // one of the Err* kinds above
	Err      error  // underlying cause, may be nil
}

func (e *FieldError) Error() string {
	if e.Kind == ErrMissingRequired {
		return fmt.Sprintf("%s: %v (expected %s)", e.Key, e.Kind, e.Expected)
	}
	msg := fmt.Sprintf("%s: %v: got %q, expected %s", e.Key, e.Kind, e.Raw, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is this problem's kind.
func (e *FieldError) Is(target error) bool { return target == e.Kind }

// Unwrap returns the underlying cause.  It returns a single error so that
// multierr.Errors keeps a lone *FieldError whole.
func (e *FieldError) Unwrap() error { return e.Err }

// ValidationError aggregates every problem found in one resolution attempt.
type ValidationError struct {
	errs []error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config: %d invalid setting(s)", len(e.errs))
	for _, err := range e.errs {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the individual problems.
func (e *ValidationError) Unwrap() []error { return e.errs }

// Fields returns the problems in the order they were found.
func (e *ValidationError) Fields() []*FieldError {
	out := make([]*FieldError, 0, len(e.errs))
	for _, err := range e.errs {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Keys returns the variable names of every problem.
func (e *ValidationError) Keys() []string {
	fields := e.Fields()
	keys := make([]string, len(fields))
	for i, fe := range fields {
		keys[i] = fe.Key
	}
	return keys
}
