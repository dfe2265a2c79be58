package kintone

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a kintone record: a mapping from field code to a typed cell.
// The proxy never interprets field contents; it only carries them.
type Record map[string]Field

// Field is a single kintone field cell. Keys other than "type" and "value"
// (lookup, ...) are kept in Extra and written back unchanged. A cell that is
// not a JSON object is carried verbatim; see RawField.
type Field struct {
	// Type is the kintone field type tag (SINGLE_LINE_TEXT, NUMBER, SUBTABLE,
	// ...). Requests may omit it.
	Type string

	// Value holds the field value.
	Value Value

	// Extra holds the remaining keys of the cell as raw JSON.
	Extra map[string]json.RawMessage

	raw     json.RawMessage
	noValue bool
}

// RawField returns a Field that marshals to raw exactly. It is used for
// cells that are not objects, which kintone validates itself.
func RawField(raw json.RawMessage) Field {
	return Field{raw: append(json.RawMessage(nil), raw...)}
}

// Raw returns the verbatim JSON of a non-object cell, or nil.
func (f Field) Raw() json.RawMessage { return f.raw }

// MarshalJSON implements json.Marshaler.
func (f Field) MarshalJSON() ([]byte, error) {
	if f.raw != nil {
		return f.raw, nil
	}

	cell := make(map[string]json.RawMessage, len(f.Extra)+2)
	for k, v := range f.Extra {
		cell[k] = v
	}
	if f.Type != "" {
		b, err := json.Marshal(f.Type)
		if err != nil {
			return nil, err
		}
		cell["type"] = b
	}
	if !f.noValue {
		b, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		cell["value"] = b
	}
	return json.Marshal(cell)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return fmt.Errorf("invalid field cell: %s", trimmed)
	}
	if trimmed[0] != '{' {
		*f = RawField(trimmed)
		return nil
	}

	var cell map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &cell); err != nil {
		return err
	}

	out := Field{noValue: true}
	// A "type" that is not a non-empty string stays in Extra so it is
	// forwarded as sent.
	if t, ok := cell["type"]; ok && len(t) > 2 && t[0] == '"' {
		if err := json.Unmarshal(t, &out.Type); err != nil {
			return err
		}
		delete(cell, "type")
	}
	if v, ok := cell["value"]; ok {
		if err := out.Value.UnmarshalJSON(v); err != nil {
			return err
		}
		out.noValue = false
		delete(cell, "value")
	}
	if len(cell) > 0 {
		out.Extra = cell
	}

	*f = out
	return nil
}

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindStringList
	// KindNested is any other JSON value (objects, lists of objects, booleans)
	// kept verbatim.
	KindNested
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindStringList:
		return "string-list"
	case KindNested:
		return "nested"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tagged union over the value shapes kintone uses. The zero
// Value is null.
type Value struct {
	kind   ValueKind
	str    string
	num    json.Number
	list   []string
	nested json.RawMessage
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue returns a number Value. n must be a valid JSON number.
func NumberValue(n json.Number) Value {
	return Value{kind: KindNumber, num: n}
}

// StringListValue returns a list-of-string Value.
func StringListValue(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{kind: KindStringList, list: list}
}

// NestedValue returns a Value wrapping arbitrary JSON.
func NestedValue(raw json.RawMessage) Value {
	return Value{kind: KindNested, nested: append(json.RawMessage(nil), raw...)}
}

// Kind reports the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// String returns the string variant, or "" if v is not a string.
func (v Value) String() string { return v.str }

// Number returns the number variant.
func (v Value) Number() json.Number { return v.num }

// StringList returns the list-of-string variant.
func (v Value) StringList() []string { return v.list }

// Nested returns the raw JSON of the nested variant.
func (v Value) Nested() json.RawMessage { return v.nested }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindNested:
		if len(v.nested) == 0 {
			return []byte("null"), nil
		}
		return v.nested, nil
	default:
		return nil, fmt.Errorf("unknown value kind: %v", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty field value")
	}

	switch trimmed[0] {
	case 'n':
		if !bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("invalid field value: %s", trimmed)
		}
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case '[':
		// Lists of plain strings (CHECK_BOX, MULTI_SELECT, ...) get their own
		// variant. Lists of objects (SUBTABLE, USER_SELECT, FILE) stay nested.
		var list []string
		if err := json.Unmarshal(trimmed, &list); err == nil {
			*v = StringListValue(list...)
			return nil
		}
		*v = NestedValue(trimmed)
		return nil
	case '{', 't', 'f':
		if !json.Valid(trimmed) {
			return fmt.Errorf("invalid field value: %s", trimmed)
		}
		*v = NestedValue(trimmed)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("invalid field value: %w", err)
		}
		*v = NumberValue(n)
		return nil
	}
}
