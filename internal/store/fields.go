package store

import (
	"encoding/json"
	"time"
)

// TimeLayout is the fixed-width UTC layout used when a backend has to store
// timestamps as text. Lexical order of formatted values is time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Fields holds document data. Backends return values in their native shape
// (time.Time or TimeLayout text, []any or []string, int64 or float64); the
// accessors below normalize them.
type Fields map[string]any

// String returns the text field k, or "".
func (f Fields) String(k string) string {
	s, _ := f[k].(string)
	return s
}

// Strings returns the string array field k.
func (f Fields) Strings(k string) []string {
	switch v := f[k].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Int returns the numeric field k truncated to int.
func (f Fields) Int(k string) int {
	switch v := f[k].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// Time returns the timestamp field k, or the zero time.
func (f Fields) Time(k string) time.Time {
	switch v := f[k].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(TimeLayout, v)
		if err == nil {
			return t
		}
		t, err = time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// resolve returns a copy of f with ServerTimestamp replaced by now.
func (f Fields) resolve(now time.Time) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}
