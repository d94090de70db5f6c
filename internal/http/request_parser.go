package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"finplan/internal/core"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// parseYear reads the year query parameter, defaulting to def.
func parseYear(r *http.Request, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return def, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
	}
	return year, nil
}

// parseIntParam reads a positive integer parameter within [1, limit].
func parseIntParam(r *http.Request, name string, def, limit int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > limit {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d", errBadRequest, name, limit)
	}
	return n, nil
}

// parseRateParam reads an optional percentage ("10", "10%" or "0.1").
func parseRateParam(r *http.Request, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	rate, err := core.ParsePercent(v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return &rate, nil
}

// parseAmountParam reads an optional non-negative amount.
func parseAmountParam(r *http.Request, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	amount, err := core.ParseAmount(v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return &amount, nil
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
