package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// QueryDate parses a required YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrValidation, name)
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, name)
	}
	return d, nil
}

// QueryDateDefault parses an optional YYYY-MM-DD query parameter,
// returning the fallback when absent.
func QueryDateDefault(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	if r.URL.Query().Get(name) == "" {
		return fallback, nil
	}
	return QueryDate(r, name)
}

// QueryInt64Ptr parses an optional integer query parameter, returning
// nil when absent.
func QueryInt64Ptr(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrValidation, name)
	}
	return &v, nil
}

// QueryIntDefault parses an optional integer query parameter with a
// fallback.
func QueryIntDefault(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrValidation, name)
	}
	return v, nil
}
