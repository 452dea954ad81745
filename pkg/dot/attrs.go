package dot

import (
	"strconv"
	"strings"
)

// valueKind discriminates the scalar stored in a Value.
type valueKind int

const (
	kindAbsent valueKind = iota
	kindString
	kindInt
	kindFloat
	kindBool
)

// Value is a tagged attribute scalar: string, integer, float, boolean or
// absent. The zero Value is absent, meaning the attribute is omitted from
// the output entirely. An empty string is not absent - it is emitted as "".
type Value struct {
	kind valueKind
	s    string
	i    int64
	f    float64
	b    bool
}

// Str returns a string Value.
func Str(s string) Value { return Value{kind: kindString, s: s} }

// Int returns an integer Value.
func Int(i int) Value { return Value{kind: kindInt, i: int64(i)} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: kindFloat, f: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// Absent reports whether the Value carries no scalar.
func (v Value) Absent() bool { return v.kind == kindAbsent }

// text returns the canonical unquoted text form of the value.
// Numbers use plain decimal notation (never scientific), booleans the
// literals "true"/"false".
func (v Value) text() string {
	switch v.kind {
	case kindString:
		return v.s
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Attr is a single named attribute. Attribute lists are ordered; the
// builder preserves insertion order and overwrites in place on repeated
// keys so output stays deterministic.
type Attr struct {
	Key   string
	Value Value
}

// String builds a string attribute.
func String(key, value string) Attr { return Attr{Key: key, Value: Str(value)} }

// Number builds an integer attribute.
func Number(key string, value int) Attr { return Attr{Key: key, Value: Int(value)} }

// Decimal builds a floating-point attribute.
func Decimal(key string, value float64) Attr { return Attr{Key: key, Value: Float(value)} }

// Flag builds a boolean attribute.
func Flag(key string, value bool) Attr { return Attr{Key: key, Value: Bool(value)} }

// Label builds the reserved "label" attribute. Labels are always encoded
// after all other attributes in a node or edge bracket, regardless of the
// position they were supplied in; existing snapshots depend on that order.
func Label(value string) Attr { return String("label", value) }

// escapeValue escapes embedded double quotes and backslashes. DOT quoted
// strings need no other escaping.
func escapeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// encodeAttrs renders an ordered attribute list as a comma-separated
// key="value" sequence. Absent values are skipped and "label" entries are
// hoisted to the end. An empty result means the caller must omit the
// surrounding brackets.
func encodeAttrs(attrs []Attr) string {
	var parts []string
	var labels []string
	for _, a := range attrs {
		if a.Value.Absent() {
			continue
		}
		token := a.Key + "=\"" + escapeValue(a.Value.text()) + "\""
		if a.Key == "label" {
			labels = append(labels, token)
			continue
		}
		parts = append(parts, token)
	}
	return strings.Join(append(parts, labels...), ", ")
}

// mergeAttrs merges src into dst, overwriting same-named keys in place and
// appending new keys in first-seen order.
func mergeAttrs(dst []Attr, src []Attr) []Attr {
	for _, a := range src {
		replaced := false
		for i := range dst {
			if dst[i].Key == a.Key {
				dst[i].Value = a.Value
				replaced = true
				break
			}
		}
		if !replaced {
			dst = append(dst, a)
		}
	}
	return dst
}
