package resolve

import (
	"context"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/record"
	"xdao.co/ledgerkit/registry"
)

// ResolveTyped fetches whatever h names and decodes its app entry as T. An
// action address resolves through its record's entry, an entry address
// through the entry itself. External addresses cannot be resolved.
//
// Only the shape of the content is checked, not its declared entry type;
// use ResolveRegistered for that.
func ResolveTyped[T any](ctx context.Context, r *Resolver, h address.ContentHash) (T, error) {
	var zero T
	e, err := r.EntryOf(ctx, h)
	if err != nil {
		return zero, err
	}
	v, err := record.DecodeContent[T](e)
	if err != nil {
		return zero, fault.Wrap(fault.DeserializationMismatch, err, "could not decode %s %s to %T", h.Kind(), h, zero)
	}
	return v, nil
}

// VerifyTyped reports whether h resolves to content decodable as T.
func VerifyTyped[T any](ctx context.Context, r *Resolver, h address.ContentHash) error {
	_, err := ResolveTyped[T](ctx, r, h)
	return err
}

// ResolveRegistered resolves the action at h and decodes its entry through
// table, keyed by the entry type the action declares.
func ResolveRegistered[E any](ctx context.Context, r *Resolver, h address.ActionHash, table *registry.Table[E]) (E, error) {
	var zero E
	rec, err := r.Record(ctx, h)
	if err != nil {
		return zero, err
	}
	def, err := registry.DescriptorOf(rec.Action())
	if err != nil {
		return zero, err
	}
	if rec.Entry == nil {
		return zero, fault.New(fault.DeserializationMismatch, "action %s has no entry", h)
	}
	return table.Decode(def, *rec.Entry)
}

// AppEntryOf fetches the entry a creation action points at and decodes it
// through table.
func AppEntryOf[E any](ctx context.Context, r *Resolver, a record.Action, table *registry.Table[E]) (E, error) {
	var zero E
	c, ok := record.AsEntryCreation(a)
	if !ok {
		return zero, fault.New(fault.NotACreationAction, "%s action has no entry", kindOf(a))
	}
	def, err := registry.DescriptorOf(a)
	if err != nil {
		return zero, err
	}
	e, err := r.Entry(ctx, c.EntryHash)
	if err != nil {
		return zero, err
	}
	return table.Decode(def, e)
}

// EntryOf fetches the entry behind any address: an action's record entry or
// an entry directly. External addresses fail with fault.ResolutionUnsupported
// and actions without an entry with fault.DeserializationMismatch.
func (r *Resolver) EntryOf(ctx context.Context, h address.ContentHash) (record.Entry, error) {
	switch h.Kind() {
	case address.KindAction:
		ah, err := address.NarrowToAction(h)
		if err != nil {
			return record.Entry{}, err
		}
		rec, err := r.Record(ctx, ah)
		if err != nil {
			return record.Entry{}, err
		}
		if rec.Entry == nil {
			return record.Entry{}, fault.New(fault.DeserializationMismatch, "%s action %s has no entry", kindOf(rec.Action()), h)
		}
		return *rec.Entry, nil
	case address.KindEntry:
		eh, err := address.NarrowToEntry(h)
		if err != nil {
			return record.Entry{}, err
		}
		return r.Entry(ctx, eh)
	case address.KindExternal:
		return record.Entry{}, fault.New(fault.ResolutionUnsupported, "cannot get an entry from external address %s", h)
	default:
		return record.Entry{}, fault.New(fault.InvalidHashString, "undefined address")
	}
}
