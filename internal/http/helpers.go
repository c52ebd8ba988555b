package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"bilancio/internal/core"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	body, err := sonnet.Marshal(v)
	if err != nil {
		// The payload is already ours; a marshal failure is a bug.
		_, _ = w.Write([]byte(`{"error":"encode response"}`))
		return
	}
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(r *http.Request, v any) error {
	dec := sonnet.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryDate parses a YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (core.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return core.Date{}, fmt.Errorf("missing %q parameter", name)
	}
	t, err := time.Parse(core.DateLayout, raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %q parameter: want YYYY-MM-DD", name)
	}
	return core.Date{Time: t}, nil
}

// parseDate parses a YYYY-MM-DD value from a request body.
func parseDate(raw string) (core.Date, error) {
	t, err := time.Parse(core.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date: want YYYY-MM-DD")
	}
	return core.Date{Time: t}, nil
}

// queryInt parses an integer query parameter, falling back to def when
// absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %q parameter: want an integer", name)
	}
	return n, nil
}

// sanitizeInput trims whitespace and strips control characters except
// tab, newline, carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
