package model

import "encoding/json"

// CursorTable maps a page number to the cursor that opens it. Page 1 never
// has an entry. Tables are values: With returns a copy and leaves the
// receiver untouched.
type CursorTable struct {
	entries map[int]Cursor
}

// NewCursorTable returns an empty table.
func NewCursorTable() CursorTable {
	return CursorTable{}
}

// Get returns the cursor registered for page.
func (t CursorTable) Get(page int) (Cursor, bool) {
	c, ok := t.entries[page]
	return c, ok
}

// Has reports whether page has a registered cursor.
func (t CursorTable) Has(page int) bool {
	_, ok := t.entries[page]
	return ok
}

// With returns a table that also maps page to c. Page numbers below 2 are ignored.
func (t CursorTable) With(page int, c Cursor) CursorTable {
	if page < 2 {
		return t
	}
	next := make(map[int]Cursor, len(t.entries)+1)
	for p, v := range t.entries {
		next[p] = v
	}
	next[page] = c
	return CursorTable{entries: next}
}

// Len returns the number of registered pages.
func (t CursorTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table contents.
func (t CursorTable) Entries() map[int]Cursor {
	out := make(map[int]Cursor, len(t.entries))
	for p, v := range t.entries {
		out[p] = v
	}
	return out
}

// CursorTableFrom builds a table from entries, dropping pages below 2.
func CursorTableFrom(entries map[int]Cursor) CursorTable {
	t := NewCursorTable()
	for p, c := range entries {
		t = t.With(p, c)
	}
	return t
}

func (t CursorTable) MarshalJSON() ([]byte, error) {
	if t.entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.entries)
}

func (t *CursorTable) UnmarshalJSON(data []byte) error {
	var entries map[int]Cursor
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*t = CursorTableFrom(entries)
	return nil
}
