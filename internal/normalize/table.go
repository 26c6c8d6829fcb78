package normalize

import "sort"

// Keyed rows know their composite index key.
type Keyed[K comparable] interface {
	Key() K
}

// Table is an ordered set of rows indexed by a composite key.
// No two rows share a key: putting a row whose key already exists replaces
// the stored row in place, keeping the position of the first occurrence.
type Table[K comparable, R Keyed[K]] struct {
	name    string
	index   []string
	columns []string
	rows    []R
	pos     map[K]int
}

func newTable[K comparable, R Keyed[K]](name string, index, columns []string) *Table[K, R] {
	return &Table[K, R]{
		name:    name,
		index:   index,
		columns: columns,
		pos:     make(map[K]int),
	}
}

// Name is the table kind.
func (t *Table[K, R]) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Index returns the names of the key columns.
func (t *Table[K, R]) Index() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.index...)
}

// Columns returns the full column schema, key columns included.
func (t *Table[K, R]) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

func (t *Table[K, R]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table[K, R]) Empty() bool {
	return t.Len() == 0
}

// Put inserts or replaces the row with the same key.
func (t *Table[K, R]) Put(row R) {
	k := row.Key()
	if i, ok := t.pos[k]; ok {
		t.rows[i] = row
		return
	}
	t.pos[k] = len(t.rows)
	t.rows = append(t.rows, row)
}

// Get returns the row stored under k.
func (t *Table[K, R]) Get(k K) (R, bool) {
	var zero R
	if t == nil {
		return zero, false
	}
	i, ok := t.pos[k]
	if !ok {
		return zero, false
	}
	return t.rows[i], true
}

// Rows returns a copy of the rows in table order.
func (t *Table[K, R]) Rows() []R {
	if t == nil {
		return nil
	}
	return append([]R(nil), t.rows...)
}

// Keys returns the row keys in table order.
func (t *Table[K, R]) Keys() []K {
	if t == nil {
		return nil
	}
	keys := make([]K, len(t.rows))
	for i := range t.rows {
		keys[i] = t.rows[i].Key()
	}
	return keys
}

// Append puts every row of other into t.
func (t *Table[K, R]) Append(other *Table[K, R]) {
	if other == nil {
		return
	}
	for _, row := range other.rows {
		t.Put(row)
	}
}

// Sort reorders the rows with less and rebuilds the index.
func (t *Table[K, R]) Sort(less func(a, b R) bool) {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return less(t.rows[i], t.rows[j])
	})
	for i := range t.rows {
		t.pos[t.rows[i].Key()] = i
	}
}
