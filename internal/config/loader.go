// internal/config/loader.go
//
// Configuration resolver.
//
/*
Context
--------
`Resolve()` builds one `Config` from the merged raw layers (see sources.go)
and the compiled-in defaults, highest precedence first:

  1. Process environment variables, matched by exact name.
  2. The optional `.env` file (default `.env`).
  3. The optional YAML file (none by default).
  4. The field's `default` tag.
  5. Nothing: the field is required and reported missing.

Every leaf field is coerced on its own.  Problems are appended to one
multierr chain instead of aborting, so the returned *ValidationError lists
every missing or malformed variable in a single pass.  Value constraints
run last (validator.go) and skip fields that already failed.

Resolve has no side effects beyond reading files and the environment.  It
does not cache; see cache.go for the process-wide instance.

Instrumentation
---------------
  - DEBUG spans: sources read, secret references resolved.
  - ERROR span: validation failure with the problem count.
  - INFO span: "config loaded" with non-secret highlights.
*/
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

/*──────────────────────────── options ───────────────────────────────────*/

type options struct {
	envFile  string
	yamlFile string
	environ  map[string]string
	secrets  SecretResolver
}

func defaultOptions() options {
	return options{envFile: ".env"}
}

// Option adjusts where Resolve reads raw values from.
type Option func(*options)

// WithEnvFile sets the .env path.  An empty path disables the file layer.
func WithEnvFile(path string) Option { return func(o *options) { o.envFile = path } }

// WithYAMLFile adds a YAML file below the .env layer.
func WithYAMLFile(path string) Option { return func(o *options) { o.yamlFile = path } }

// WithEnvironment replaces the process environment with env.  Tests use it
// to resolve against a fixed set of variables.
func WithEnvironment(env map[string]string) Option {
	return func(o *options) {
		o.environ = make(map[string]string, len(env))
		for k, val := range env {
			o.environ[k] = val
		}
	}
}

// WithSecretResolver resolves "vault:" references through r.
func WithSecretResolver(r SecretResolver) Option { return func(o *options) { o.secrets = r } }

/*─────────────────────────────── resolver ─────────────────────────────────*/

// Resolve reads every layer, coerces and validates each field, and returns
// the record or a *ValidationError naming every problem.
func Resolve(opts ...Option) (*Config, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	k, err := loadSources(o)
	if err != nil {
		return nil, err
	}

	r := &resolver{
		lookup: func(key string) (any, bool) {
			if !k.Exists(key) {
				return nil, false
			}
			return k.Get(key), true
		},
		secrets: o.secrets,
		failed:  make(map[string]bool),
		secret:  make(map[string]bool),
	}

	var cfg Config
	r.decodeStruct(reflect.ValueOf(&cfg).Elem())
	r.errs = multierr.Append(r.errs, multierr.Combine(validateStruct(&cfg, r.failed, r.secret)...))

	if r.errs != nil {
		verr := &ValidationError{errs: multierr.Errors(r.errs)}
		zap.S().Errorw("config validation failed", "problems", len(verr.errs), "keys", verr.Keys())
		return nil, verr
	}

	zap.S().Infow("config loaded", cfg.LogFields()...)
	return &cfg, nil
}

type resolver struct {
	lookup  func(key string) (any, bool)
	secrets SecretResolver
	errs    error
	failed  map[string]bool
	secret  map[string]bool
}

// field is the tag metadata of one leaf.
type field struct {
	key        string
	def        string
	hasDefault bool
	family     string
	secret     bool
}

var (
	optionalType = reflect.TypeOf(Optional{})
	listType     = reflect.TypeOf([]string(nil))
)

func (r *resolver) decodeStruct(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		key, ok := sf.Tag.Lookup("env")
		if !ok {
			if sf.Type.Kind() == reflect.Struct && sf.Type != optionalType {
				r.decodeStruct(v.Field(i))
			}
			continue
		}

		f := field{key: key, family: sf.Tag.Get("url"), secret: sf.Tag.Get("secret") == "true"}
		f.def, f.hasDefault = sf.Tag.Lookup("default")
		r.secret[key] = f.secret
		r.decodeField(f, v.Field(i))
	}
}

func (r *resolver) decodeField(f field, dst reflect.Value) {
	raw, present := r.lookup(f.key)
	isOptional := dst.Type() == optionalType

	// A YAML null (`KEY:` or `KEY: ~`) is absence.
	if !present || raw == nil {
		switch {
		case f.hasDefault:
			raw = f.def
		case isOptional:
			dst.Set(reflect.ValueOf(None()))
			return
		default:
			r.missing(f, dst.Type())
			return
		}
	}

	if s, ok := raw.(string); ok && r.secrets != nil && strings.HasPrefix(s, SecretPrefix) {
		val, err := r.secrets.ResolveSecret(strings.TrimPrefix(s, SecretPrefix))
		if err != nil {
			r.fail(f, s, "a resolvable secret reference", ErrSecretLookup, err)
			return
		}
		zap.S().Debugw("config secret resolved", "key", f.key)
		raw = val
	}

	switch {
	case isOptional:
		s, err := coerceString(raw)
		if err != nil {
			r.fail(f, raw, "string", kindOf(err), err)
			return
		}
		if s != "" && !r.checkURL(f, s) {
			return
		}
		dst.Set(reflect.ValueOf(Some(s)))

	case dst.Type() == listType:
		list, err := coerceList(raw)
		if err != nil {
			r.fail(f, raw, "list of strings or comma-separated string", kindOf(err), err)
			return
		}
		dst.Set(reflect.ValueOf(list))

	case dst.Kind() == reflect.String:
		s, err := coerceString(raw)
		if err != nil {
			r.fail(f, raw, "string", kindOf(err), err)
			return
		}
		if s == "" && !f.hasDefault {
			r.missing(f, dst.Type())
			return
		}
		if s != "" && !r.checkURL(f, s) {
			return
		}
		dst.SetString(s)

	case dst.Kind() == reflect.Int:
		n, err := coerceInt(raw)
		if err != nil {
			r.fail(f, raw, "integer", kindOf(err), err)
			return
		}
		dst.SetInt(int64(n))

	case dst.Kind() == reflect.Bool:
		b, err := coerceBool(raw)
		if err != nil {
			r.fail(f, raw, "boolean", kindOf(err), err)
			return
		}
		dst.SetBool(b)

	default:
		r.fail(f, raw, "a supported type", ErrTypeCoercion, nil)
	}
}

func (r *resolver) checkURL(f field, s string) bool {
	if f.family == "" {
		return true
	}
	if err := checkURL(f.family, s); err != nil {
		r.fail(f, s, expectedURL(f.family), ErrInvalidURL, err)
		return false
	}
	return true
}

func (r *resolver) missing(f field, t reflect.Type) {
	r.failed[f.key] = true
	r.errs = multierr.Append(r.errs, &FieldError{
		Key:      f.key,
		Expected: describeType(f, t),
		Kind:     ErrMissingRequired,
	})
}

func (r *resolver) fail(f field, raw any, expected string, kind, cause error) {
	r.failed[f.key] = true
	r.errs = multierr.Append(r.errs, &FieldError{
		Key:      f.key,
		Raw:      redact(rawString(raw), f.secret),
		Expected: expected,
		Kind:     kind,
		Err:      cause,
	})
}

func describeType(f field, t reflect.Type) string {
	switch {
	case f.family != "":
		return expectedURL(f.family)
	case t == listType:
		return "list of strings"
	case t.Kind() == reflect.Int:
		return "integer"
	case t.Kind() == reflect.Bool:
		return "boolean"
	}
	return "non-empty string"
}

func kindOf(err error) error {
	for _, kind := range []error{ErrMalformedList, ErrInvalidURL, ErrSecretLookup, ErrTypeCoercion} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrTypeCoercion
}

func rawString(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", raw)
}
