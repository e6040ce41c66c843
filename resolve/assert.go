package resolve

import (
	"context"
	"reflect"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/record"
)

// FetchAsserted fetches the record at h and checks that its action is of the
// given kind.
func (r *Resolver) FetchAsserted(ctx context.Context, h address.ActionHash, kind record.ActionKind) (record.Record, error) {
	rec, err := r.Record(ctx, h)
	if err != nil {
		return record.Record{}, err
	}
	act := record.Value(rec.Action())
	if act == nil {
		return record.Record{}, fault.New(fault.ActionTypeMismatch, "action address (%s) holds no action", h)
	}
	if got := act.Kind(); got != kind {
		return record.Record{}, fault.Mismatch(fault.ActionTypeMismatch, kind, got, "action address (%s) is not a %s record", h, kind)
	}
	return rec, nil
}

// FetchAs fetches the action at h as the concrete action type P, for example
// FetchAs[record.Update](ctx, r, h). P must be one of the value variants;
// pointer and interface instantiations fail with fault.ActionTypeMismatch.
func FetchAs[P record.Action](ctx context.Context, r *Resolver, h address.ActionHash) (P, error) {
	var zero P
	if t := reflect.TypeFor[P](); t.Kind() != reflect.Struct {
		return zero, fault.New(fault.ActionTypeMismatch, "FetchAs needs a value action type, got %s", t)
	}
	rec, err := r.FetchAsserted(ctx, h, zero.Kind())
	if err != nil {
		return zero, err
	}
	act := record.Value(rec.Action())
	p, ok := act.(P)
	if !ok {
		return zero, fault.Mismatch(fault.ActionTypeMismatch, zero.Kind(), act.Kind(), "action %s decoded as %T", h, act)
	}
	return p, nil
}

// FetchEntryCreationAction fetches the action at h, which must be a Create or
// an Update.
func (r *Resolver) FetchEntryCreationAction(ctx context.Context, h address.ActionHash) (record.EntryCreation, error) {
	rec, err := r.Record(ctx, h)
	if err != nil {
		return record.EntryCreation{}, err
	}
	c, ok := record.AsEntryCreation(rec.Action())
	if !ok {
		return record.EntryCreation{}, fault.New(fault.NotACreationAction, "action address (%s) is not a create action, got %s", h, kindOf(rec.Action()))
	}
	return c, nil
}

// kindOf names a's kind for messages without calling into a nil action.
func kindOf(a record.Action) string {
	if a = record.Value(a); a == nil {
		return "no action"
	}
	return a.Kind().String()
}
