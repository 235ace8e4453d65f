package object

import (
	"fmt"
	"math"
)

// maxTagLoop bounds __index and __newindex chains.
const maxTagLoop = 100

// IndexHook intercepts a lookup before the table is consulted. Returning
// true short-circuits the lookup with the returned value.
type IndexHook func(t *Table, key Value) (Value, bool)

// NewIndexHook intercepts an assignment before the table is modified.
// Returning true means the assignment was handled.
type NewIndexHook func(t *Table, key, value Value) bool

type tableEntry struct {
	key   Value
	value Value
}

// Table is a mapping from non-nil keys to non-nil values. Assigning nil
// removes an entry. Entries are kept in insertion order, which gives next()
// a stable traversal order.
type Table struct {
	index     map[Value]int
	entries   []tableEntry
	live      int
	funcKeys  []*Function
	metatable *Table

	onIndex    IndexHook
	onNewIndex NewIndexHook
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: map[Value]int{}}
}

// NewTableFromMap creates a table holding the given string-keyed entries.
func NewTableFromMap(m map[string]Value) *Table {
	t := NewTable()
	for k, v := range m {
		t.setEntry(String(k), v)
	}
	return t
}

func (t *Table) Type() Type { return TABLE }

func (t *Table) String() string { return fmt.Sprintf("table: %p", t) }

// Interface converts the table to a map keyed by each key's Go value.
func (t *Table) Interface() any {
	m := make(map[any]any, t.live)
	for _, e := range t.entries {
		if !IsNil(e.value) {
			m[e.key.Interface()] = e.value.Interface()
		}
	}
	return m
}

func (*Table) value() {}

// Metatable returns the table's metatable, or nil.
func (t *Table) Metatable() *Table { return t.metatable }

// SetMetatable replaces the table's metatable. nil removes it.
func (t *Table) SetMetatable(mt *Table) { t.metatable = mt }

// SetIndexHook installs a hook fired before every Get.
func (t *Table) SetIndexHook(h IndexHook) { t.onIndex = h }

// SetNewIndexHook installs a hook fired before every Set.
func (t *Table) SetNewIndexHook(h NewIndexHook) { t.onNewIndex = h }

// Len returns the number of entries.
func (t *Table) Len() int { return t.live }

// normalize maps equal closures onto one canonical key.
func (t *Table) normalize(key Value, insert bool) Value {
	fn, ok := key.(*Function)
	if !ok || fn.closure == nil {
		return key
	}
	for _, k := range t.funcKeys {
		if k.Equals(fn) {
			return k
		}
	}
	if insert {
		t.funcKeys = append(t.funcKeys, fn)
	}
	return fn
}

// RawGet returns the value stored under key without consulting the
// metatable. Missing keys yield nil.
func (t *Table) RawGet(key Value) Value {
	if IsNil(key) {
		return Nil
	}
	if i, ok := t.index[t.normalize(key, false)]; ok {
		return t.entries[i].value
	}
	return Nil
}

// GetString is a shortcut for RawGet(String(key)).
func (t *Table) GetString(key string) Value {
	return t.RawGet(String(key))
}

// RawSet stores value under key without consulting the metatable.
func (t *Table) RawSet(key, value Value) error {
	if IsNil(key) {
		return Errorf("table index is nil")
	}
	if n, ok := key.(Number); ok && math.IsNaN(float64(n)) {
		return Errorf("table index is NaN")
	}
	t.setEntry(key, value)
	return nil
}

func (t *Table) setEntry(key, value Value) {
	value = OrNil(value)
	key = t.normalize(key, true)
	if i, ok := t.index[key]; ok {
		wasLive := !IsNil(t.entries[i].value)
		t.entries[i].value = value
		switch {
		case wasLive && IsNil(value):
			t.live--
		case !wasLive && !IsNil(value):
			t.live++
		}
		return
	}
	if IsNil(value) {
		return
	}
	if len(t.entries) > 8 && t.live < len(t.entries)/2 {
		t.compact()
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, tableEntry{key: key, value: value})
	t.live++
}

// compact drops removed entries. Removed keys stay addressable until the
// next insertion of a new key so that a traversal may clear fields.
func (t *Table) compact() {
	entries := make([]tableEntry, 0, t.live)
	index := make(map[Value]int, t.live)
	for _, e := range t.entries {
		if IsNil(e.value) {
			continue
		}
		index[e.key] = len(entries)
		entries = append(entries, e)
	}
	t.entries = entries
	t.index = index
}

// Get looks up key, falling back to the metatable's __index when the key
// is missing. With a nil context no metamethod is consulted.
func (t *Table) Get(ctx CallContext, key Value) (Value, error) {
	current := t
	for loop := 0; loop < maxTagLoop; loop++ {
		if current.onIndex != nil {
			if v, ok := current.onIndex(current, key); ok {
				return OrNil(v), nil
			}
		}
		v := current.RawGet(key)
		if !IsNil(v) || ctx == nil || current.metatable == nil {
			return v, nil
		}
		switch h := current.metatable.GetString("__index").(type) {
		case *Function:
			results, err := ctx.Call(h, current, key)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return Nil, nil
			}
			return OrNil(results[0]), nil
		case *Table:
			current = h
		case *Userdata:
			return h.Get(ctx, key)
		default:
			return Nil, nil
		}
	}
	return nil, Errorf("loop in gettable")
}

// Set assigns value to key. A nil key is ignored. When the key is absent and
// the metatable defines __newindex, the assignment is redirected to it.
func (t *Table) Set(ctx CallContext, key, value Value) error {
	current := t
	for loop := 0; loop < maxTagLoop; loop++ {
		if current.onNewIndex != nil && current.onNewIndex(current, key, value) {
			return nil
		}
		if IsNil(key) {
			return nil
		}
		if ctx == nil || current.metatable == nil || !IsNil(current.RawGet(key)) {
			return current.RawSet(key, value)
		}
		switch h := current.metatable.GetString("__newindex").(type) {
		case *Function:
			_, err := ctx.Call(h, current, key, value)
			return err
		case *Table:
			current = h
		case *Userdata:
			return h.Set(ctx, key, value)
		default:
			return current.RawSet(key, value)
		}
	}
	return Errorf("loop in settable")
}

// Next returns the entry following key in traversal order. A nil key starts
// the traversal; ok is false once it is exhausted.
func (t *Table) Next(key Value) (Value, Value, bool, error) {
	start := 0
	if !IsNil(key) {
		i, found := t.index[t.normalize(key, false)]
		if !found {
			return nil, nil, false, Errorf("invalid key to 'next'")
		}
		start = i + 1
	}
	for i := start; i < len(t.entries); i++ {
		if e := t.entries[i]; !IsNil(e.value) {
			return e.key, e.value, true, nil
		}
	}
	return Nil, Nil, false, nil
}

// Each calls fn for every entry in traversal order until fn returns false.
func (t *Table) Each(fn func(key, value Value) bool) {
	for _, e := range t.entries {
		if IsNil(e.value) {
			continue
		}
		if !fn(e.key, e.value) {
			return
		}
	}
}
