package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// FromJSON constructs a Value from a raw JSON document, preserving object
// key insertion order exactly (spec.md §4.1) by walking the token stream
// directly rather than decoding through map[string]interface{}, which
// encoding/json does not guarantee an order for.
func FromJSON(data []byte) (Value, error) {
	return FromJSONOrdered(data)
}

// FromJSONOrdered is an alias for FromJSON kept for call sites that want
// to be explicit about the ordering guarantee.
func FromJSONOrdered(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Null(), fmt.Errorf("value: invalid JSON: %w", err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), err
				}
				key, _ := keyTok.(string)
				val, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Null(), err
			}
			return FromObject(obj), nil
		case '[':
			var items []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Null(), err
			}
			return Array(items), nil
		}
		return Null(), fmt.Errorf("value: unexpected delimiter %v", t)
	case json.Number:
		return numberToValue(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Null(), fmt.Errorf("value: unexpected token %T", tok)
	}
}

func numberToValue(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return Int(i)
	}
	f, _ := n.Float64()
	return Float(f)
}

// ToInterface converts a Value back into plain Go data (map[string]any,
// []any, string, bool, int64, float64, nil) suitable for re-marshaling
// with encoding/json, gopkg.in/yaml.v3, or handing to a host callback.
func (v Value) ToInterface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.byt
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToInterface()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, v.AsObject().Len())
		for _, k := range v.AsObject().Keys() {
			e, _ := v.AsObject().Get(k)
			out[k] = e.ToInterface()
		}
		return out
	default:
		return nil
	}
}

// MarshalCanonicalJSON renders v as JSON with object keys sorted
// lexicographically and no insignificant whitespace, per spec.md's
// Canonical JSON definition used for .ordo CRC/signature coverage.
func (v Value) MarshalCanonicalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInt:
		fmt.Fprintf(buf, "%d", v.i)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("value: cannot canonicalize non-finite float")
		}
		b, err := json.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindBytes:
		b, err := json.Marshal(v.byt)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.AsObject().SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			ev, _ := v.AsObject().Get(k)
			if err := writeCanonical(buf, ev); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
