package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is a parsed RATE_LIMIT_DEFAULT value.
type Rate struct {
	Count  int
	Period time.Duration
}

// PerSecond returns the steady-state refill rate.
func (r Rate) PerSecond() float64 {
	return float64(r.Count) / r.Period.Seconds()
}

var ratePeriods = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseRate parses "<count>/<period>" or "<count> per <period>", where
// period is second, minute, hour, or day (plural accepted).
func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	count, period, ok := strings.Cut(s, "/")
	if !ok {
		count, period, ok = strings.Cut(s, " per ")
	}
	if !ok {
		return Rate{}, fmt.Errorf("rate %q: missing period", s)
	}

	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n < 1 {
		return Rate{}, fmt.Errorf("rate %q: count must be a positive integer", s)
	}

	unit := strings.TrimSuffix(strings.TrimSpace(period), "s")
	d, ok := ratePeriods[unit]
	if !ok {
		return Rate{}, errors.New("rate " + strconv.Quote(s) + ": unknown period")
	}
	return Rate{Count: n, Period: d}, nil
}
