package protocol

import (
	"encoding/json"
	"math"
)

// Params carries loosely typed command arguments as decoded from JSON.
type Params map[string]any

// Has reports whether key is present and non-null.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// Reader returns a typed accessor over p. The first conversion failure is
// recorded and reported by Err.
func (p Params) Reader() *Reader {
	return &Reader{p: p}
}

// Reader decodes typed values from Params.
type Reader struct {
	p   Params
	err error
}

// Err returns the first decoding failure as an INVALID_PARAMS error.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(key, want string, v any) {
	if r.err == nil {
		r.err = InvalidParams("param %q: expected %s, got %T", key, want, v)
	}
}

// Float returns key as a float64, or def when absent.
func (r *Reader) Float(key string, def float64) float64 {
	v, ok := r.p[key]
	if !ok || v == nil {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(key, "number", v)
		return def
	}
	return f
}

// OptFloat returns nil when key is absent.
func (r *Reader) OptFloat(key string) *float64 {
	if !r.p.Has(key) {
		return nil
	}
	f := r.Float(key, 0)
	return &f
}

// RequireFloat records an error when key is absent.
func (r *Reader) RequireFloat(key string) float64 {
	if !r.p.Has(key) {
		if r.err == nil {
			r.err = InvalidParams("param %q is required", key)
		}
		return 0
	}
	return r.Float(key, 0)
}

// String returns key as a string, or def when absent.
func (r *Reader) String(key, def string) string {
	v, ok := r.p[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, "string", v)
		return def
	}
	return s
}

// RequireString records an error when key is absent or empty.
func (r *Reader) RequireString(key string) string {
	s := r.String(key, "")
	if s == "" && r.err == nil {
		r.err = InvalidParams("param %q is required", key)
	}
	return s
}

// Bool returns key as a bool, or def when absent.
func (r *Reader) Bool(key string, def bool) bool {
	v, ok := r.p[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(key, "bool", v)
		return def
	}
	return b
}

// Int64s returns key as a list of integers.
func (r *Reader) Int64s(key string) []int64 {
	v, ok := r.p[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []int64:
		return list
	case []int:
		out := make([]int64, len(list))
		for i, n := range list {
			out[i] = int64(n)
		}
		return out
	case []any:
		out := make([]int64, 0, len(list))
		for _, item := range list {
			f, ok := toFloat(item)
			if !ok || f != math.Trunc(f) {
				r.fail(key, "list of integers", v)
				return nil
			}
			out = append(out, int64(f))
		}
		return out
	}
	r.fail(key, "list of integers", v)
	return nil
}

// Strings returns key as a list of strings.
func (r *Reader) Strings(key string) []string {
	v, ok := r.p[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				r.fail(key, "list of strings", v)
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	r.fail(key, "list of strings", v)
	return nil
}

// Map returns key as a nested Params. Absent keys yield an empty map.
func (r *Reader) Map(key string) Params {
	v, ok := r.p[key]
	if !ok || v == nil {
		return Params{}
	}
	switch m := v.(type) {
	case Params:
		return m
	case map[string]any:
		return Params(m)
	}
	r.fail(key, "object", v)
	return Params{}
}

// Maps returns key as a list of nested Params.
func (r *Reader) Maps(key string) []Params {
	v, ok := r.p[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []Params:
		return list
	case []map[string]any:
		out := make([]Params, len(list))
		for i, m := range list {
			out[i] = Params(m)
		}
		return out
	case []any:
		out := make([]Params, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				if pm, isParams := item.(Params); isParams {
					out = append(out, pm)
					continue
				}
				r.fail(key, "list of objects", v)
				return nil
			}
			out = append(out, Params(m))
		}
		return out
	}
	r.fail(key, "list of objects", v)
	return nil
}

// Raw returns the untyped value for key.
func (r *Reader) Raw(key string) any {
	return r.p[key]
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
