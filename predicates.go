package htmltags

// Shape predicates for the loosely-typed option surface. Option shorthands
// arrive as `any` values, either decoded from YAML or passed programmatically,
// and are validated here before anything is converted into resolved form.

// isString reports whether v is a string.
func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// isBool reports whether v is a bool.
func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

// isNumber reports whether v is any integer or float kind.
// YAML decoding produces int, uint64, or float64 depending on the literal.
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// asTransform extracts a path transform from v. Both the named PathTransform
// type and a bare func(string, string) string are accepted; nil function
// values are rejected.
func asTransform(v any) (PathTransform, bool) {
	switch fn := v.(type) {
	case PathTransform:
		if fn == nil {
			return nil, false
		}
		return fn, true
	case func(string, string) string:
		if fn == nil {
			return nil, false
		}
		return PathTransform(fn), true
	}
	return nil, false
}

// asStringSlice extracts a list of strings from v. A single string, a
// []string, and a []any holding only strings (the decoded form of a YAML
// sequence) are all accepted.
func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case string:
		return []string{s}, true
	case []string:
		return s, true
	case []any:
		out := make([]string, len(s))
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = str
		}
		return out, true
	}
	return nil, false
}
