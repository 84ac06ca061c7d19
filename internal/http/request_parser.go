// This file implements utilities for parsing and validating request data.
// Query values are read through QueryParser, which collects the first
// problem so a handler checks a single error after reading every field.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"substack/internal/services"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = fmt.Errorf("%w: request body is empty", services.ErrInvalidParameter)

// QueryParser reads typed values from a query string.
type QueryParser struct {
	values url.Values
	err    error
}

func NewQueryParser(values url.Values) *QueryParser {
	return &QueryParser{values: values}
}

func (p *QueryParser) fail(name, format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s %s", services.ErrInvalidParameter, name, fmt.Sprintf(format, args...))
	}
}

func (p *QueryParser) raw(name string) (string, bool) {
	v := strings.TrimSpace(p.values.Get(name))
	return v, v != ""
}

// String returns the trimmed value or def when absent.
func (p *QueryParser) String(name, def string) string {
	if v, ok := p.raw(name); ok {
		return v
	}
	return def
}

// OptionalString returns nil when the parameter is absent.
func (p *QueryParser) OptionalString(name string, maxLen int) *string {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	if maxLen > 0 && len(v) > maxLen {
		p.fail(name, "must be at most %d characters", maxLen)
		return nil
	}
	return &v
}

// IntRange parses an integer within [lo, hi], falling back to def.
func (p *QueryParser) IntRange(name string, def, lo, hi int) int {
	v, ok := p.raw(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, "must be an integer")
		return def
	}
	if n < lo || n > hi {
		p.fail(name, "must be between %d and %d", lo, hi)
		return def
	}
	return n
}

// MinInt parses an integer of at least lo, falling back to def.
func (p *QueryParser) MinInt(name string, def, lo int) int {
	v, ok := p.raw(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, "must be an integer")
		return def
	}
	if n < lo {
		p.fail(name, "must be at least %d", lo)
		return def
	}
	return n
}

// OptionalInt64 parses an integer id, nil when absent.
func (p *QueryParser) OptionalInt64(name string) *int64 {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(name, "must be an integer")
		return nil
	}
	return &n
}

// OptionalNonNegativeFloat parses a float >= 0, nil when absent.
func (p *QueryParser) OptionalNonNegativeFloat(name string) *float64 {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(name, "must be a number")
		return nil
	}
	if f < 0 {
		p.fail(name, "must be greater than or equal to 0")
		return nil
	}
	return &f
}

// Bool parses true/false style values, falling back to def.
func (p *QueryParser) Bool(name string, def bool) bool {
	v, ok := p.raw(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name, "must be a boolean")
		return def
	}
	return b
}

// Err returns the first problem found, wrapping services.ErrInvalidParameter.
func (p *QueryParser) Err() error {
	return p.err
}

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("%w: malformed JSON body: %v", services.ErrInvalidParameter, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", services.ErrInvalidParameter)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := decodeJSON(w, r, v); err != nil && !errors.Is(err, errEmptyBody) {
		return err
	}
	return nil
}

// parseIfUnmodifiedSince accepts RFC 3339 timestamps, with or without a
// zone. Unparseable values disable the check.
func parseIfUnmodifiedSince(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// pathID parses the named path wildcard as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", services.ErrInvalidParameter, name)
	}
	return id, nil
}
