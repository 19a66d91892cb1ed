package sanitize

import (
	"bytes"
	"strings"
)

// Replacement is written in place of every surrogate code point.
const Replacement = "\uFFFD"

// Sanitize returns v with every surrogate code point (U+D800-U+DFFF) in
// string values and mapping keys replaced by U+FFFD. Scalars are untouched.
// The rewrite is total and idempotent.
func Sanitize(v Value) Value {
	switch t := v.(type) {
	case String:
		return String(sanitizeString(string(t)))
	case Mapping:
		out := make(Mapping, len(t))
		for i, m := range t {
			out[i] = Member{Key: sanitizeString(m.Key), Value: Sanitize(m.Value)}
		}
		return out
	case Sequence:
		out := make(Sequence, len(t))
		for i, e := range t {
			out[i] = Sanitize(e)
		}
		return out
	default:
		return v
	}
}

func hasSurrogate(v Value) bool {
	switch t := v.(type) {
	case String:
		return containsSurrogate(string(t))
	case Mapping:
		for _, m := range t {
			if containsSurrogate(m.Key) || hasSurrogate(m.Value) {
				return true
			}
		}
	case Sequence:
		for _, e := range t {
			if hasSurrogate(e) {
				return true
			}
		}
	}
	return false
}

// Text replaces surrogate code points in a single string. Callers that
// marshal with encoding/json use it first, since encoding/json would turn
// each byte of a surrogate into its own U+FFFD.
func Text(s string) string {
	return sanitizeString(s)
}

// isSurrogateAt reports whether s[i:] starts with the three-byte encoding of
// a surrogate code point: ED A0..BF 80..BF.
func isSurrogateAt(s string, i int) bool {
	return i+2 < len(s) &&
		s[i] == 0xED &&
		s[i+1] >= 0xA0 && s[i+1] <= 0xBF &&
		s[i+2] >= 0x80 && s[i+2] <= 0xBF
}

func containsSurrogate(s string) bool {
	for i := strings.IndexByte(s, 0xED); i >= 0; {
		if isSurrogateAt(s, i) {
			return true
		}
		next := strings.IndexByte(s[i+1:], 0xED)
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

func sanitizeString(s string) string {
	if !containsSurrogate(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if isSurrogateAt(s, i) {
			b.WriteString(Replacement)
			i += 3
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// SanitizeJSON rewrites a JSON document so it carries no surrogate code
// points. Documents without any are returned unchanged. Bodies that do not
// decode, including ones nested deeper than the decoder allows, are
// rewritten at the byte level.
func SanitizeJSON(body []byte) []byte {
	out, _ := sanitizeBody(body)
	return out
}

// sanitizeBody is SanitizeJSON that also reports whether body was rewritten.
func sanitizeBody(body []byte) ([]byte, bool) {
	if !mayContainSurrogate(body) {
		return body, false
	}
	if v, err := Decode(body); err == nil && hasSurrogate(v) {
		if out, err := Encode(Sanitize(v)); err == nil {
			return out, true
		}
	}
	// The decoder folds lone escapes in object keys to U+FFFD, so a tree
	// without surrogates does not prove the body is clean.
	return rewriteBytes(body)
}

// rewriteBytes replaces raw surrogate encodings with U+FFFD and lone
// \uD800-\uDFFF escapes with \ufffd. Escape pairing follows unquote: a high
// surrogate directly followed by a low one is kept.
func rewriteBytes(body []byte) ([]byte, bool) {
	out := make([]byte, 0, len(body))
	changed := false
	for i := 0; i < len(body); {
		c := body[i]
		if c == 0xED && i+2 < len(body) &&
			body[i+1] >= 0xA0 && body[i+1] <= 0xBF &&
			body[i+2] >= 0x80 && body[i+2] <= 0xBF {
			out = append(out, Replacement...)
			changed = true
			i += 3
			continue
		}
		if c != '\\' || i+1 >= len(body) {
			out = append(out, c)
			i++
			continue
		}
		if body[i+1] == 'u' {
			if r, ok := hex4(body[i+2:]); ok && r >= 0xD800 && r <= 0xDFFF {
				if r < 0xDC00 && i+7 < len(body) && body[i+6] == '\\' && body[i+7] == 'u' {
					if r2, ok := hex4(body[i+8:]); ok && r2 >= 0xDC00 && r2 <= 0xDFFF {
						out = append(out, body[i:i+12]...)
						i += 12
						continue
					}
				}
				out = append(out, `\ufffd`...)
				changed = true
				i += 6
				continue
			}
		}
		out = append(out, c, body[i+1])
		i += 2
	}
	if !changed {
		return body, false
	}
	return out, true
}

// mayContainSurrogate is a cheap pre-check for raw surrogate bytes or a
// \uD800-\uDFFF escape. Paired escapes also match; the full decode sorts
// them out.
func mayContainSurrogate(body []byte) bool {
	if containsSurrogate(string(body)) {
		return true
	}
	for i := bytes.Index(body, []byte(`\u`)); i >= 0; {
		if i+3 < len(body) && (body[i+2] == 'd' || body[i+2] == 'D') {
			switch body[i+3] {
			case '8', '9', 'a', 'b', 'c', 'd', 'e', 'f', 'A', 'B', 'C', 'D', 'E', 'F':
				return true
			}
		}
		next := bytes.Index(body[i+2:], []byte(`\u`))
		if next < 0 {
			break
		}
		i += next + 2
	}
	return false
}
