// Package step writes ISO 10303-21 (STEP physical file) exchange files.
// Entities are appended as they are created and referenced by Handle.
// Transactions let a caller discard every entity written since a
// savepoint.
package step

import (
	"fmt"
	"sync"
	"time"
)

// Handle references an entity instance. The zero Handle is null and is
// written as $.
type Handle int

func (h Handle) IsNull() bool { return h == 0 }

func (h Handle) String() string {
	if h.IsNull() {
		return "$"
	}
	return fmt.Sprintf("#%d", int(h))
}

// Enum is an enumeration value, written .VALUE.
type Enum string

// Typed is a value wrapped in a defined type, e.g. IFCLABEL('x').
type Typed struct {
	Type  string
	Value any
}

// Derived is the * placeholder for attributes derived in a subtype.
type Derived struct{}

// Header is the HEADER section of the file.
type Header struct {
	Description  []string
	Name         string
	TimeStamp    time.Time
	Author       string
	Organization string
	Preprocessor string
	Originating  string
	Schema       string
}

type record struct {
	id     Handle
	entity string
	args   []any
}

// File is an in-memory STEP file. It is safe for concurrent use.
type File struct {
	mu      sync.Mutex
	Header  Header
	records []record
	next    Handle
}

// NewFile returns an empty file for the given schema (e.g. "IFC2X3").
func NewFile(schema string) *File {
	return &File{
		Header: Header{Schema: schema, TimeStamp: time.Now().UTC()},
		next:   1,
	}
}

// Add appends an entity instance and returns its handle. entity is the
// upper-case entity name; args are written in order with the encoding
// rules of Format.
func (f *File) Add(entity string, args ...any) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.next
	f.next++
	f.records = append(f.records, record{id: h, entity: entity, args: args})
	return h
}

// Len returns the number of entity instances in the file.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// Entity returns the entity name and arguments of h.
func (f *File) Entity(h Handle) (string, []any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].id == h {
			return f.records[i].entity, f.records[i].args, true
		}
		if f.records[i].id < h {
			break
		}
	}
	return "", nil, false
}

// Count returns how many instances of entity the file holds.
func (f *File) Count(entity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.records {
		if r.entity == entity {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// Tx is a savepoint. Rollback removes every entity added after Begin,
// including those of nested transactions that were committed.
type Tx struct {
	f    *File
	mark int
	next Handle
	done bool
}

// Begin opens a transaction at the current end of the file.
func (f *File) Begin() *Tx {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Tx{f: f, mark: len(f.records), next: f.next}
}

// Commit keeps the entities written since Begin. It is a no-op after
// Commit or Rollback.
func (t *Tx) Commit() {
	t.done = true
}

// Rollback discards the entities written since Begin and reuses their
// handles. It is a no-op after Commit or Rollback.
func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.mark < len(t.f.records) {
		t.f.records = t.f.records[:t.mark]
	}
	t.f.next = t.next
}

// Done reports whether the transaction was committed or rolled back.
func (t *Tx) Done() bool { return t.done }
