package config

import (
	"net/url"
	"slices"
	"strings"
)

// schemeFamily lists the schemes accepted by a `url:"..."` tag.  Drivers
// allows a "+driver" suffix on the scheme, as in postgresql+asyncpg.
type schemeFamily struct {
	expected string
	schemes  []string
	drivers  bool
	noHost   []string // schemes that carry a path instead of a host
}

var schemeFamilies = map[string]schemeFamily{
	"postgres": {expected: "postgres URL (postgres://, postgresql://, postgresql+<driver>://)",
		schemes: []string{"postgres", "postgresql"}, drivers: true},
	"redis": {expected: "redis URL (redis://, rediss://, unix://)",
		schemes: []string{"redis", "rediss", "unix"}, noHost: []string{"unix"}},
	"http": {expected: "http(s) URL",
		schemes: []string{"http", "https"}},
	"ws": {expected: "websocket URL (ws://, wss://)",
		schemes: []string{"ws", "wss"}},
}

// checkURL validates raw against the named family.
func checkURL(family, raw string) error {
	fam, ok := schemeFamilies[family]
	if !ok {
		return fail(ErrInvalidURL, "unknown scheme family %q", family)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fail(ErrInvalidURL, "%v", err)
	}
	if u.Scheme == "" {
		return fail(ErrInvalidURL, "missing scheme")
	}

	base, driver, hasDriver := strings.Cut(u.Scheme, "+")
	if hasDriver && (!fam.drivers || driver == "") {
		return fail(ErrInvalidURL, "unsupported scheme %q", u.Scheme)
	}
	if !slices.Contains(fam.schemes, base) {
		return fail(ErrInvalidURL, "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" && !slices.Contains(fam.noHost, base) {
		return fail(ErrInvalidURL, "missing host")
	}
	return nil
}

func expectedURL(family string) string {
	if fam, ok := schemeFamilies[family]; ok {
		return fam.expected
	}
	return "URL"
}

// redact hides secret values in error messages.  URLs keep everything but
// the password so operators can still spot a wrong host or scheme.
func redact(raw string, secret bool) string {
	if !secret || raw == "" {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Redacted()
	}
	return "[redacted]"
}
