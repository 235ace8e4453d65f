package object

// String is an immutable byte string. Lua strings are not required to be
// valid UTF-8.
type String string

func (s String) Type() Type { return STRING }
func (s String) String() string { return string(s) }
func (s String) Interface() any { return string(s) }
func (String) value() {}

// Len returns the length of the string in bytes.
func (s String) Len() int { return len(s) }

// ToString converts v to a string the way concatenation does: strings pass
// through and numbers are formatted. Other values are not convertible.
func ToString(v Value) (String, bool) {
	switch v := v.(type) {
	case String:
		return v, true
	case Number:
		return String(v.String()), true
	}
	return "", false
}
