package extractor

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

const (
	// maxObjectDepth bounds the brace scanner. Deeper spans are abandoned.
	maxObjectDepth = 64
	// maxCandidates bounds how many '{' positions the scanner tries.
	maxCandidates = 16
)

// MalformedOutputError reports model output that held no decodable JSON object.
// Callers decide whether that is an error or an empty result.
type MalformedOutputError struct {
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return "malformed model output: " + e.Reason
}

// DecodeObject extracts a JSON object of type T from raw model text.
// It tries the whole text with code fences stripped, then each balanced
// {...} span found by scanning from successive '{' characters. A span only
// counts when it is valid JSON carrying at least one of T's top-level keys;
// a span that qualifies but does not decode into T (a quoted number, say) is
// malformed output, not a reason to look further inside it.
func DecodeObject[T any](raw string) (T, error) {
	var zero T

	text := stripFences(raw)
	if text == "" {
		return zero, &MalformedOutputError{Reason: "empty output", Raw: raw}
	}

	var whole T
	firstErr := json.Unmarshal([]byte(text), &whole)
	if firstErr == nil {
		return whole, nil
	}
	if json.Valid([]byte(text)) {
		return zero, &MalformedOutputError{Reason: fmt.Sprintf("decode object: %v", firstErr), Raw: raw}
	}

	keys := topLevelKeys[T]()

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return zero, &MalformedOutputError{Reason: "no json object found", Raw: raw}
	}

	for tried := 0; start >= 0 && tried < maxCandidates; tried++ {
		next := start + 1
		if end, ok := matchBrace(text, start); ok {
			span := []byte(text[start : end+1])
			if json.Valid(span) {
				if hasAnyKey(span, keys) {
					var out T
					if err := json.Unmarshal(span, &out); err != nil {
						return zero, &MalformedOutputError{Reason: fmt.Sprintf("decode object: %v", err), Raw: raw}
					}
					return out, nil
				}
				// Valid but unrelated: its inner objects are not candidates either.
				next = end + 1
			}
		}
		i := strings.IndexByte(text[next:], '{')
		if i < 0 {
			break
		}
		start = next + i
	}

	return zero, &MalformedOutputError{Reason: fmt.Sprintf("no decodable json object: %v", firstErr), Raw: raw}
}

// topLevelKeys lists the lowercased JSON keys of T's fields. Nil means T is
// not a struct and any object is acceptable.
func topLevelKeys[T any]() map[string]bool {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil
	}

	keys := make(map[string]bool, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[strings.ToLower(name)] = true
	}
	return keys
}

// hasAnyKey reports whether the object in span has one of keys at its top
// level. encoding/json matches keys case-insensitively, so this does too.
func hasAnyKey(span []byte, keys map[string]bool) bool {
	if keys == nil {
		return true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(span, &obj); err != nil {
		return false
	}
	for k := range obj {
		if keys[strings.ToLower(k)] {
			return true
		}
	}
	return false
}

// stripFences trims whitespace and a surrounding ``` or ```json fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (e.g. "json") up to the first newline.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if info := strings.TrimSpace(s[:nl]); !strings.ContainsAny(info, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// matchBrace returns the index of the '}' closing the '{' at start. It skips
// braces inside JSON strings and gives up past maxObjectDepth.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
			if depth > maxObjectDepth {
				return 0, false
			}
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
