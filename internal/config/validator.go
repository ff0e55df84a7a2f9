// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// The resolver calls `validateStruct` once every field has been coerced.
// Type problems are already reported by then, so this layer only checks
// value constraints: ranges, enumerations, cross-field ordering, and the two
// custom rules registered below.
//
// Field names in validator errors are the environment variable names (see
// the tag-name func) so a FieldError built from them points operators at the
// variable to fix.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(sf reflect.StructField) string {
		if name := sf.Tag.Get("env"); name != "" {
			return name
		}
		return sf.Name
	})

	must(val.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, ok := logLevels[strings.ToUpper(fl.Field().String())]
		return ok
	}))
	must(val.RegisterValidation("ratelimit", func(fl validator.FieldLevel) bool {
		_, err := ParseRate(fl.Field().String())
		return err == nil
	}))
	return val
}

func must(err error) {
	if err != nil {
		panic("config: register validation: " + err.Error())
	}
}

// logLevels are the accepted LOG_LEVEL names, upper-cased.
var logLevels = map[string]struct{}{
	"DEBUG": {}, "INFO": {}, "WARNING": {}, "WARN": {}, "ERROR": {}, "CRITICAL": {},
}

//
// public API
//

// validateStruct returns one *FieldError per violated rule.  Keys listed in
// skip already failed coercion and are left out.
func validateStruct(c *Config, skip map[string]bool, secret map[string]bool) []error {
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{&FieldError{Key: "config", Kind: ErrConstraint, Expected: "valid configuration", Err: err}}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if skip[key] {
			continue
		}
		out = append(out, &FieldError{
			Key:      key,
			Raw:      redact(fmt.Sprint(fe.Value()), secret[key]),
			Expected: describeRule(fe),
			Kind:     ErrConstraint,
		})
	}
	return out
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "at least " + fe.Param()
	case "max":
		return "at most " + fe.Param()
	case "oneof":
		return "one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "gtefield":
		return "a value >= " + fe.Param()
	case "startswith":
		return fmt.Sprintf("a value starting with %q", fe.Param())
	case "email":
		return "an email address"
	case "required":
		return "a non-empty value"
	case "loglevel":
		return "one of DEBUG, INFO, WARNING, ERROR, CRITICAL"
	case "ratelimit":
		return `a rate such as "100/minute"`
	}
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}
