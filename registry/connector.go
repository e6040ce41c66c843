package registry

import (
	"fmt"

	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/record"
)

// Connector ties one entry struct T to its unit value and descriptor.
type Connector[T, U any] struct {
	Unit U
	Def  record.EntryDef
}

// CheckRecordEntryType reports whether rec was created with c's entry type.
func (c Connector[T, U]) CheckRecordEntryType(rec record.Record) bool {
	def, err := DescriptorOf(rec.Action())
	return err == nil && def == c.Def
}

// FromRecord decodes rec's entry as T after checking that rec is a creation
// action of c's entry type.
func (c Connector[T, U]) FromRecord(rec record.Record) (T, error) {
	var zero T
	act := record.Value(rec.Action())
	if act == nil {
		return zero, fault.New(fault.NotACreationAction, "action %s is missing", rec.Hash())
	}
	creation, ok := record.AsEntryCreation(act)
	if !ok {
		return zero, fault.New(fault.NotACreationAction, "action %s is %s", rec.Hash(), act.Kind())
	}
	if creation.EntryType.Kind != record.EntryKindApp || creation.EntryType.App == nil {
		return zero, fault.New(fault.NotAppEntry, "action %s creates a %s entry", rec.Hash(), creation.EntryType)
	}
	if got := *creation.EntryType.App; got != c.Def {
		return zero, fault.Mismatch(fault.NoMatchingRegisteredType, c.Def, got, "entry def mismatch")
	}
	if rec.Entry == nil {
		return zero, fault.New(fault.DeserializationMismatch, "action %s has no entry", rec.Hash())
	}
	v, err := record.DecodeContent[T](*rec.Entry)
	if err != nil {
		return zero, fault.Wrap(fault.DeserializationMismatch, err, "decode %s", c.Def)
	}
	return v, nil
}

// RegisterUnit records c's unit under its descriptor.
func (c Connector[T, U]) RegisterUnit(units Units[U]) error {
	if _, exists := units[c.Def]; exists {
		return fmt.Errorf("registry: unit for %s already registered", c.Def)
	}
	units[c.Def] = c.Unit
	return nil
}

// Connect registers c's decoder in t, wrapping decoded values with wrap.
func Connect[T, U, E any](t *Table[E], c Connector[T, U], wrap func(T) E) error {
	return t.Register(c.Def, Variant[T](wrap))
}
