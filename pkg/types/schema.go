package types

import (
	"encoding/json"
	"fmt"
)

// Kind names the Go type a snapshot field holds.
type Kind string

// Field kinds.
const (
	KindString  Kind = "string"
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindItems   Kind = "items"
	KindConfirm Kind = "confirm"
)

// Accepts reports whether v is a valid value for the kind.
func (k Kind) Accepts(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindInt:
		switch v.(type) {
		case int, int64:
			return true
		}
		return false
	case KindItems:
		_, ok := v.([]Item)
		return ok
	case KindConfirm:
		_, ok := v.(Confirmation)
		return ok
	default:
		return false
	}
}

// Schema maps field names to kinds.
type Schema map[string]Kind

// DefaultSchema describes the known snapshot fields.
func DefaultSchema() Schema {
	return Schema{
		FieldRoute:        KindString,
		FieldFilter:       KindString,
		FieldSearch:       KindString,
		FieldCategory:     KindString,
		FieldSelectedOnly: KindBool,
		FieldItems:        KindItems,
		FieldStatus:       KindString,
		FieldError:        KindString,
		FieldNotice:       KindString,
		FieldConfirm:      KindConfirm,
	}
}

// Validate checks every field of p against the schema. Fields are checked
// in sorted order so the reported error is stable.
func (s Schema) Validate(p Partial) error {
	for _, field := range p.Keys() {
		kind, ok := s[field]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		if !kind.Accepts(p[field]) {
			return fmt.Errorf("%w: %q wants %s, got %T", ErrFieldType, field, kind, p[field])
		}
	}
	return nil
}

// Decode turns a persisted JSON value back into the Go type its field
// kind requires.
func (s Schema) Decode(field string, raw json.RawMessage) (any, error) {
	kind, ok := s[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	var (
		v   any
		err error
	)
	switch kind {
	case KindString:
		var x string
		err = json.Unmarshal(raw, &x)
		v = x
	case KindBool:
		var x bool
		err = json.Unmarshal(raw, &x)
		v = x
	case KindInt:
		var x int
		err = json.Unmarshal(raw, &x)
		v = x
	case KindItems:
		x := []Item{}
		err = json.Unmarshal(raw, &x)
		if x == nil {
			x = []Item{}
		}
		v = x
	case KindConfirm:
		var x Confirmation
		err = json.Unmarshal(raw, &x)
		v = x
	default:
		return nil, fmt.Errorf("%w: %q has unsupported kind %s", ErrFieldType, field, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %q: %v", ErrFieldType, field, err)
	}
	return v, nil
}
