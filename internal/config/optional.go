package config

// Optional is a string setting that may be absent.  The zero value is unset,
// which is distinct from a supplied empty string.
type Optional struct {
	value string
	set   bool
}

// Some returns an Optional holding v.
func Some(v string) Optional { return Optional{value: v, set: true} }

// None returns an unset Optional.
func None() Optional { return Optional{} }

// Get returns the value and whether it was supplied.
func (o Optional) Get() (string, bool) { return o.value, o.set }

// IsSet reports whether a value was supplied, even an empty one.
func (o Optional) IsSet() bool { return o.set }

// Or returns the value when it is set and non-empty, otherwise fallback.
func (o Optional) Or(fallback string) string {
	if o.set && o.value != "" {
		return o.value
	}
	return fallback
}

// String returns the value, or "" when unset.
func (o Optional) String() string { return o.value }
