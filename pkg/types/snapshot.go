package types

import (
	"encoding/json"
	"sort"
)

// Partial is a set of field updates merged into a Snapshot.
type Partial map[string]any

// Keys returns the field names in sorted order.
func (p Partial) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot is one immutable value of the whole observable state. The field
// map is private and every accessor hands out copies, so a Snapshot can be
// shared freely once built.
type Snapshot struct {
	fields  map[string]any
	version uint64
}

// NewSnapshot builds the first snapshot of a lineage from the given fields.
func NewSnapshot(fields Partial) Snapshot {
	return Snapshot{fields: cloneFields(fields), version: 1}
}

// Version increases by one for every snapshot derived from this one.
func (s Snapshot) Version() uint64 {
	return s.version
}

// IsZero reports whether s was never built with NewSnapshot.
func (s Snapshot) IsZero() bool {
	return s.fields == nil
}

// Len returns the number of fields.
func (s Snapshot) Len() int {
	return len(s.fields)
}

// Has reports whether the field is set.
func (s Snapshot) Has(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// Get returns a copy of the field value.
func (s Snapshot) Get(field string) (any, bool) {
	v, ok := s.fields[field]
	if !ok {
		return nil, false
	}
	return CloneValue(v), true
}

// Fields returns a deep copy of all fields.
func (s Snapshot) Fields() Partial {
	return cloneFields(s.fields)
}

// Pick returns a deep copy of the named fields. Fields that are not set
// are left out.
func (s Snapshot) Pick(fields ...string) Partial {
	out := make(Partial, len(fields))
	for _, f := range fields {
		if v, ok := s.fields[f]; ok {
			out[f] = CloneValue(v)
		}
	}
	return out
}

// Merge shallow-merges p over s and returns the next snapshot. s is left
// untouched.
func (s Snapshot) Merge(p Partial) Snapshot {
	next := make(map[string]any, len(s.fields)+len(p))
	for k, v := range s.fields {
		next[k] = v
	}
	for k, v := range p {
		next[k] = CloneValue(v)
	}
	return Snapshot{fields: next, version: s.version + 1}
}

// Supersede returns a copy of next placed after s in the version lineage.
// Fields of s that next does not carry are dropped.
func (s Snapshot) Supersede(next Snapshot) Snapshot {
	return Snapshot{fields: cloneFields(next.fields), version: s.version + 1}
}

// Clone returns a deep copy with the same version.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{fields: cloneFields(s.fields), version: s.version}
}

// MarshalJSON encodes the fields as a JSON object.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.fields)
}

// Text returns the named string field, or "" when absent or not a string.
func (s Snapshot) Text(field string) string {
	v, _ := s.fields[field].(string)
	return v
}

// Bool returns the named bool field, or false when absent.
func (s Snapshot) Bool(field string) bool {
	v, _ := s.fields[field].(bool)
	return v
}

// Route returns the route field.
func (s Snapshot) Route() string { return s.Text(FieldRoute) }

// Filter returns the raw filter field.
func (s Snapshot) Filter() string { return s.Text(FieldFilter) }

// Search returns the search term.
func (s Snapshot) Search() string { return s.Text(FieldSearch) }

// Category returns the category field.
func (s Snapshot) Category() string { return s.Text(FieldCategory) }

// Status returns the load status.
func (s Snapshot) Status() string { return s.Text(FieldStatus) }

// ErrorMessage returns the human-readable error message of the last failed load.
func (s Snapshot) ErrorMessage() string { return s.Text(FieldError) }

// Notice returns the last feedback message for the user.
func (s Snapshot) Notice() string { return s.Text(FieldNotice) }

// SelectedOnly reports whether the view is restricted to selected items.
func (s Snapshot) SelectedOnly() bool { return s.Bool(FieldSelectedOnly) }

// Items returns a copy of the item list. It never returns nil.
func (s Snapshot) Items() []Item {
	items, _ := s.fields[FieldItems].([]Item)
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Confirm returns the pending confirmation, if any.
func (s Snapshot) Confirm() Confirmation {
	c, _ := s.fields[FieldConfirm].(Confirmation)
	return c
}

func cloneFields(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies the reference types a snapshot may hold. Scalars
// and value structs are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case []Item:
		out := make([]Item, len(t))
		copy(out, t)
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case map[string]any:
		return cloneFields(t)
	case Partial:
		return Partial(cloneFields(t))
	default:
		return v
	}
}
