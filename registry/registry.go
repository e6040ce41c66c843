// Package registry maps entry type descriptors to the Go types that decode
// them. Callers build a Table of decode functions for their application's
// entry types; nothing is discovered implicitly.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/record"
)

// DescriptorOf returns the app entry type declared by a, failing with
// fault.NotAppEntry for every action that does not create an App entry.
func DescriptorOf(a record.Action) (record.EntryDef, error) {
	if a = record.Value(a); a == nil {
		return record.EntryDef{}, fault.New(fault.NotAppEntry, "no action")
	}
	c, ok := record.AsEntryCreation(a)
	if !ok {
		return record.EntryDef{}, fault.New(fault.NotAppEntry, "%s action declares no entry type", a.Kind())
	}
	if c.EntryType.Kind != record.EntryKindApp || c.EntryType.App == nil {
		return record.EntryDef{}, fault.New(fault.NotAppEntry, "expected an app entry type, got %s", c.EntryType)
	}
	return *c.EntryType.App, nil
}

// Units maps entry type descriptors to a caller-defined unit enum.
type Units[U any] map[record.EntryDef]U

// UnitOf returns the unit registered for a's entry type.
func UnitOf[U any](a record.Action, units Units[U]) (U, error) {
	var zero U
	def, err := DescriptorOf(a)
	if err != nil {
		return zero, err
	}
	u, ok := units[def]
	if !ok {
		return zero, fault.New(fault.NoMatchingRegisteredType, "no unit for %s", def)
	}
	return u, nil
}

// DecodeFunc decodes an entry into the caller's entry-types value.
type DecodeFunc[E any] func(record.Entry) (E, error)

// Variant returns a DecodeFunc that strictly decodes App content as T and
// wraps it into E.
func Variant[T, E any](wrap func(T) E) DecodeFunc[E] {
	return func(e record.Entry) (E, error) {
		v, err := record.DecodeContent[T](e)
		if err != nil {
			var zero E
			return zero, err
		}
		return wrap(v), nil
	}
}

// Table is a descriptor-keyed set of decode functions. It is safe for
// concurrent use.
type Table[E any] struct {
	mu       sync.RWMutex
	decoders map[record.EntryDef]DecodeFunc[E]
}

func NewTable[E any]() *Table[E] {
	return &Table[E]{decoders: make(map[record.EntryDef]DecodeFunc[E])}
}

// Register adds fn for def. Each descriptor may be registered once.
func (t *Table[E]) Register(def record.EntryDef, fn DecodeFunc[E]) error {
	if fn == nil {
		return fmt.Errorf("registry: nil decoder for %s", def)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.decoders[def]; exists {
		return fmt.Errorf("registry: %s already registered", def)
	}
	t.decoders[def] = fn
	return nil
}

func (t *Table[E]) MustRegister(def record.EntryDef, fn DecodeFunc[E]) {
	if err := t.Register(def, fn); err != nil {
		panic(err)
	}
}

// Defs returns the registered descriptors in (zome, entry) order.
func (t *Table[E]) Defs() []record.EntryDef {
	t.mu.RLock()
	out := make([]record.EntryDef, 0, len(t.decoders))
	for def := range t.decoders {
		out = append(out, def)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZomeIndex != out[j].ZomeIndex {
			return out[i].ZomeIndex < out[j].ZomeIndex
		}
		return out[i].EntryIndex < out[j].EntryIndex
	})
	return out
}

// Decode decodes raw with the function registered for def. A failure that
// already carries a fault kind is returned as is; any other decode error
// becomes fault.DeserializationMismatch.
func (t *Table[E]) Decode(def record.EntryDef, raw record.Entry) (E, error) {
	var zero E
	t.mu.RLock()
	fn, ok := t.decoders[def]
	t.mu.RUnlock()
	if !ok {
		return zero, fault.New(fault.NoMatchingRegisteredType, "no match for %s in expected entry types", def)
	}
	v, err := fn(raw)
	if err != nil {
		if fault.KindOf(err) != "" {
			return zero, err
		}
		return zero, fault.Wrap(fault.DeserializationMismatch, err, "decode %s", def)
	}
	return v, nil
}

// DecodeByDescriptor decodes raw through table using def.
func DecodeByDescriptor[E any](def record.EntryDef, raw record.Entry, table *Table[E]) (E, error) {
	return table.Decode(def, raw)
}
