package mcp

import (
	"bytes"
	"encoding/json"
	"strconv"

	"datecalc/internal/calc"
)

// Args are the raw arguments of a tools/call. Accessors convert type
// mismatches into calc errors so tool failures stay structured.
type Args map[string]json.RawMessage

func (a Args) present(name string) bool {
	raw, ok := a[name]
	return ok && len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// String returns an optional string argument ("" when absent).
func (a Args) String(name string) (string, error) {
	if !a.present(name) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(a[name], &s); err != nil {
		return "", calc.Invalid(name, "must be a string")
	}
	return s, nil
}

// RequiredString is String that reports MissingParameter when absent or empty.
func (a Args) RequiredString(name string) (string, error) {
	s, err := a.String(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", calc.Missing(name)
	}
	return s, nil
}

// FirstString returns the first non-empty of several alias arguments,
// reporting the first name as missing.
func (a Args) FirstString(names ...string) (string, error) {
	for _, n := range names {
		s, err := a.String(n)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
	}
	return "", calc.Missing(names[0])
}

// Amount returns a required non-negative JSON integer. Strings, fractions
// and negative values are InvalidParameter.
func (a Args) Amount(name string) (int, error) {
	if !a.present(name) {
		return 0, calc.Missing(name)
	}
	raw := a[name]
	var n json.Number
	if raw[0] == '"' || json.Unmarshal(raw, &n) != nil {
		return 0, calc.Invalid(name, "must be a non-negative integer, got %s", raw)
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, calc.Invalid(name, "must be a non-negative integer, got %s", raw)
	}
	if v < 0 {
		return 0, calc.Invalid(name, "must be a non-negative integer, got %d", v)
	}
	if v > int64(^uint32(0)>>1) {
		return 0, calc.Invalid(name, "%d is outside the supported range", v)
	}
	return int(v), nil
}

// StringList returns an optional array of strings.
func (a Args) StringList(name string) ([]string, error) {
	if !a.present(name) {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(a[name], &out); err != nil {
		return nil, calc.Invalid(name, "must be an array of strings")
	}
	return out, nil
}
