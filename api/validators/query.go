package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryDate reads an optional date parameter, accepting RFC 3339
// timestamps or plain YYYY-MM-DD dates. Absent values return the zero
// time.
func ParseQueryDate(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a date").WithDetails(map[string]any{"field": key})
	}
	return t, nil
}
