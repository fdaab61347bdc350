package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
)

// QueryString returns the trimmed query value, or "".
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// ParseQueryInt reads an integer in [lo, hi], returning fallback when absent.
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	value, err := ParseOptionalQueryInt(r, key, lo, hi)
	if err != nil || value == nil {
		return fallback, err
	}
	return *value, nil
}

// ParseOptionalQueryInt is ParseQueryInt with nil for an absent parameter.
func ParseOptionalQueryInt(r *http.Request, key string, lo, hi int) (*int, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, queryError(key, "query parameter must be numeric", nil)
	}
	if value < lo || value > hi {
		return nil, queryError(key, "query parameter out of range", map[string]any{"min": lo, "max": hi})
	}
	return &value, nil
}

// ParseQueryBool accepts the strconv.ParseBool spellings.
func ParseQueryBool(r *http.Request, key string, fallback bool) (bool, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, queryError(key, "query parameter must be a boolean", nil)
	}
	return value, nil
}

func queryError(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}
