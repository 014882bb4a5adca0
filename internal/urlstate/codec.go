// Package urlstate mirrors flat application state into a URL query string
// and back.
//
// The type of each default decides how its key is decoded: arrays are
// comma separated and decode to []any holding float64 for numeric elements
// and string otherwise, numbers fall back to the default when they do not
// parse, booleans are true only for the literal "true", and everything else
// is kept as a string.
package urlstate

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

type State map[string]any

// Decode reads every key of defaults from query. Keys absent from query take
// their default. query may start with "?".
func Decode(query string, defaults State) State {
	// ParseQuery keeps every pair it could parse even when it reports an error.
	values, _ := url.ParseQuery(strings.TrimPrefix(query, "?"))

	state := make(State, len(defaults))
	for key, def := range defaults {
		raw, ok := values[key]
		if !ok || len(raw) == 0 {
			state[key] = def
			continue
		}
		state[key] = decodeValue(raw[0], def)
	}
	return state
}

func decodeValue(raw string, def any) any {
	switch d := def.(type) {
	case []any, []string, []int, []float64:
		return decodeList(raw)
	case float64:
		if n, ok := parseNumber(raw); ok {
			return n
		}
		return d
	case int:
		if n, ok := parseNumber(raw); ok && n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
			return int(n)
		}
		return d
	case bool:
		return raw == "true"
	default:
		return raw
	}
}

func decodeList(raw string) []any {
	if raw == "" {
		return []any{}
	}

	parts := strings.Split(raw, ",")
	list := make([]any, len(parts))
	for i, part := range parts {
		if n, ok := parseNumber(part); ok {
			list[i] = n
		} else {
			list[i] = part
		}
	}
	return list
}

// parseNumber accepts finite decimal numbers only; blanks, NaN and
// infinities stay strings.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Encode writes state over current and returns the resulting query string
// without a leading "?". Keys of current that state does not mention are
// kept. Nil values and empty lists remove their key.
func Encode(current url.Values, state State) string {
	values := make(url.Values, len(current)+len(state))
	for key, vs := range current {
		values[key] = append([]string(nil), vs...)
	}

	for key, value := range state {
		encoded, ok := encodeValue(value)
		if !ok {
			values.Del(key)
			continue
		}
		values.Set(key, encoded)
	}

	return values.Encode()
}

func encodeValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case []any:
		return joinList(len(v), func(i int) string { return formatScalar(v[i]) })
	case []string:
		return joinList(len(v), func(i int) string { return v[i] })
	case []int:
		return joinList(len(v), func(i int) string { return strconv.Itoa(v[i]) })
	case []float64:
		return joinList(len(v), func(i int) string { return formatScalar(v[i]) })
	default:
		return formatScalar(v), true
	}
}

func joinList(n int, elem func(int) string) (string, bool) {
	if n == 0 {
		return "", false
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = elem(i)
	}
	return strings.Join(parts, ","), true
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
