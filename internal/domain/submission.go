package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Submission is one inbound form response: an arbitrary key/value
// record whose fields may live at the top level, under a nested group,
// or under a flattened "group/field" key, depending on which historical
// payload shape produced it.
type Submission map[string]any

// Value resolves a single field path. A path is tried first as a
// literal key (this covers the slash-flattened shape, where "group/f"
// is itself a key), then as a dotted traversal into nested groups.
func (s Submission) Value(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	if v, ok := s[path]; ok {
		return v, true
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}
	var cur any = map[string]any(s)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// First returns the first non-empty value among the candidate paths,
// rendered as a trimmed string. Supporting several historical payload
// shapes in one pass is the point: callers list every known location of
// a field in priority order.
func (s Submission) First(paths ...string) (string, bool) {
	for _, path := range paths {
		v, ok := s.Value(path)
		if !ok {
			continue
		}
		if str := Stringify(v); str != "" {
			return str, true
		}
	}
	return "", false
}

// FirstRaw is First without the string rendering, for structured values
// such as geolocation arrays.
func (s Submission) FirstRaw(paths ...string) (any, bool) {
	for _, path := range paths {
		v, ok := s.Value(path)
		if !ok || v == nil {
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// FirstInt resolves a candidate list to an integer, tolerating numeric
// strings and JSON float decoding.
func (s Submission) FirstInt(paths ...string) (int, bool) {
	v, ok := s.FirstRaw(paths...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Stringify renders a payload value the way it would appear in a form:
// numbers without exponent notation, everything trimmed.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
