package sanitize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// maxDepth matches the nesting limit of encoding/json.
const maxDepth = 10000

var (
	errInvalidString = errors.New("invalid JSON string literal")
	errTooDeep       = errors.New("JSON nesting too deep")
)

var encodeConfig = jsoniter.Config{EscapeHTML: false}.Froze()

// Decode parses a JSON document into a Value. Unlike encoding/json it keeps
// unpaired \uD800-\uDFFF escapes as surrogate code points instead of
// replacing them, so Sanitize sees exactly what the sender wrote. Object
// member order is preserved.
func Decode(data []byte) (Value, error) {
	// Syntax only; json.Valid does not reject surrogates or invalid UTF-8.
	if !json.Valid(data) {
		return nil, errors.New("decode JSON: invalid document")
	}
	iter := jsoniter.ParseBytes(encodeConfig, data)
	v, err := decodeValue(iter, 0)
	if err != nil {
		return nil, err
	}
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, fmt.Errorf("decode JSON: %w", iter.Error)
	}
	if iter.WhatIsNext() != jsoniter.InvalidValue {
		return nil, errors.New("decode JSON: trailing data after value")
	}
	return v, nil
}

func decodeValue(iter *jsoniter.Iterator, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, errTooDeep
	}

	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		s, err := unquote(iter.SkipAndReturnBytes())
		if err != nil {
			return nil, err
		}
		return String(s), nil

	case jsoniter.ObjectValue:
		m := Mapping{}
		var err error
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			var v Value
			v, err = decodeValue(it, depth+1)
			if err != nil {
				return false
			}
			m = append(m, Member{Key: key, Value: v})
			return true
		})
		if err != nil {
			return nil, err
		}
		if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
			return nil, fmt.Errorf("decode JSON object: %w", iter.Error)
		}
		return m, nil

	case jsoniter.ArrayValue:
		seq := Sequence{}
		var err error
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			var v Value
			v, err = decodeValue(it, depth+1)
			if err != nil {
				return false
			}
			seq = append(seq, v)
			return true
		})
		if err != nil {
			return nil, err
		}
		if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
			return nil, fmt.Errorf("decode JSON array: %w", iter.Error)
		}
		return seq, nil

	case jsoniter.NumberValue, jsoniter.BoolValue, jsoniter.NilValue:
		raw := iter.SkipAndReturnBytes()
		if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
			return nil, fmt.Errorf("decode JSON literal: %w", iter.Error)
		}
		return Scalar(raw), nil
	}

	if iter.Error != nil {
		return nil, fmt.Errorf("decode JSON: %w", iter.Error)
	}
	return nil, errors.New("decode JSON: unexpected token")
}

// unquote decodes a quoted JSON string literal. Lone surrogate escapes are
// written as their three-byte encoding; surrogate pairs are combined.
func unquote(raw []byte) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", errInvalidString
	}
	s := raw[1 : len(raw)-1]
	if bytes.IndexByte(s, '\\') < 0 {
		return string(s), nil
	}

	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b = append(b, c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", errInvalidString
		}
		switch s[i+1] {
		case '"', '\\', '/':
			b = append(b, s[i+1])
		case 'b':
			b = append(b, '\b')
		case 'f':
			b = append(b, '\f')
		case 'n':
			b = append(b, '\n')
		case 'r':
			b = append(b, '\r')
		case 't':
			b = append(b, '\t')
		case 'u':
			r, ok := hex4(s[i+2:])
			if !ok {
				return "", errInvalidString
			}
			i += 6
			if r >= 0xD800 && r < 0xDC00 && i+1 < len(s) && s[i] == '\\' && s[i+1] == 'u' {
				if r2, ok := hex4(s[i+2:]); ok && r2 >= 0xDC00 && r2 <= 0xDFFF {
					b = utf8.AppendRune(b, utf16.DecodeRune(r, r2))
					i += 6
					continue
				}
			}
			b = appendCodePoint(b, r)
			continue
		default:
			return "", errInvalidString
		}
		i += 2
	}
	return string(b), nil
}

// appendCodePoint is utf8.AppendRune that also encodes surrogates, which
// the utf8 package refuses to emit.
func appendCodePoint(b []byte, r rune) []byte {
	if r >= 0xD800 && r <= 0xDFFF {
		return append(b, 0xE0|byte(r>>12), 0x80|byte(r>>6)&0x3F, 0x80|byte(r)&0x3F)
	}
	return utf8.AppendRune(b, r)
}

func hex4(s []byte) (rune, bool) {
	if len(s) < 4 {
		return 0, false
	}
	var r rune
	for _, c := range s[:4] {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return r, true
}

// Encode writes v as compact JSON, keeping Mapping member order.
func Encode(v Value) ([]byte, error) {
	stream := encodeConfig.BorrowStream(nil)
	defer encodeConfig.ReturnStream(stream)

	writeValue(stream, v)
	if stream.Error != nil {
		return nil, fmt.Errorf("encode JSON: %w", stream.Error)
	}

	buf := stream.Buffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch t := v.(type) {
	case String:
		stream.WriteString(string(t))
	case Mapping:
		stream.WriteObjectStart()
		for i, m := range t {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(m.Key)
			writeValue(stream, m.Value)
		}
		stream.WriteObjectEnd()
	case Sequence:
		stream.WriteArrayStart()
		for i, e := range t {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, e)
		}
		stream.WriteArrayEnd()
	case Scalar:
		stream.WriteRaw(string(t))
	default:
		stream.WriteNil()
	}
}
