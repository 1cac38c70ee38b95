// internal/app/system/eventbus/payload.go
package eventbus

import (
	"time"
)

// Payload is the loosely typed body of an event. Handlers validate the
// fields they need and ignore the rest.
type Payload map[string]any

// String returns the value at key when it is a non-empty string.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Time returns the value at key as a time. It accepts a time.Time or a
// string in RFC 3339 or YYYY-MM-DD form.
func (p Payload) Time(key string) (time.Time, bool) {
	switch v := p[key].(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
