package object

import (
	"fmt"
	"sort"
)

// UserdataValue is the capability a host object exposes to Lua code.
// Indexing a userdata calls Get and assigning a field calls Set.
type UserdataValue interface {
	Get(key Value) Value
	Set(key, value Value) error
}

// Lengther is implemented by host objects that report a length to the #
// operator. Userdata without it have length 0.
type Lengther interface {
	Len() int
}

// Userdata wraps a host object.
type Userdata struct {
	host UserdataValue
}

// NewUserdata wraps v as a Lua value.
func NewUserdata(v UserdataValue) *Userdata {
	return &Userdata{host: v}
}

func (u *Userdata) Type() Type { return USERDATA }

func (u *Userdata) String() string { return fmt.Sprintf("userdata: %p", u) }

// Interface returns the wrapped host object.
func (u *Userdata) Interface() any { return u.host }

func (*Userdata) value() {}

// Value returns the wrapped host object.
func (u *Userdata) Value() UserdataValue { return u.host }

// Get reads a field from the host object.
func (u *Userdata) Get(ctx CallContext, key Value) (Value, error) {
	return OrNil(u.host.Get(key)), nil
}

// Set writes a field of the host object.
func (u *Userdata) Set(ctx CallContext, key, value Value) error {
	return u.host.Set(key, value)
}

// Len returns the host object's length, or 0.
func (u *Userdata) Len() int {
	if l, ok := u.host.(Lengther); ok {
		return l.Len()
	}
	return 0
}

// MapUserdata is a host object backed by a string-keyed map. It is the
// simplest way to hand structured data to Lua code without exposing it as
// a table.
type MapUserdata struct {
	fields   map[string]Value
	readOnly bool
}

// NewMapUserdata creates a MapUserdata over a copy of fields.
func NewMapUserdata(fields map[string]Value, readOnly bool) *MapUserdata {
	m := make(map[string]Value, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return &MapUserdata{fields: m, readOnly: readOnly}
}

func (m *MapUserdata) Get(key Value) Value {
	s, ok := key.(String)
	if !ok {
		return Nil
	}
	if v, ok := m.fields[string(s)]; ok {
		return v
	}
	return Nil
}

func (m *MapUserdata) Set(key, value Value) error {
	if m.readOnly {
		return Errorf("attempt to modify a read-only userdata")
	}
	s, ok := key.(String)
	if !ok {
		return Errorf("userdata fields must be strings, got %s", TypeOf(key))
	}
	if IsNil(value) {
		delete(m.fields, string(s))
		return nil
	}
	m.fields[string(s)] = value
	return nil
}

func (m *MapUserdata) Len() int { return len(m.fields) }

// Keys returns the field names in sorted order.
func (m *MapUserdata) Keys() []string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
