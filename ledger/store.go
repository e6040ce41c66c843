// Package ledger is the record store the resolver reads from: a storage.CAS
// holding signed action envelopes and entries, plus the checks that make a
// fetched record trustworthy.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/record"
	"xdao.co/ledgerkit/storage"
)

// EntrySource fetches entries by address.
type EntrySource interface {
	FetchEntry(ctx context.Context, h address.EntryHash) (record.Entry, error)
}

type Options struct {
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "ledger")
	}
	return o
}

// Store serves validated records out of a CAS. It holds no mutable state of
// its own and is safe for concurrent use when the CAS is.
type Store struct {
	cas storage.CAS
	log *slog.Logger
}

func NewStore(cas storage.CAS, opts Options) *Store {
	opts = opts.withDefaults()
	return &Store{cas: cas, log: opts.Logger}
}

// CAS returns the underlying block store.
func (s *Store) CAS() storage.CAS { return s.cas }

// FetchValidatedRecord returns the record at h. Absent records, envelopes
// that fail to decode or verify, and creation actions whose entry is missing
// or of the wrong kind all fail with fault.RecordNotFound.
func (s *Store) FetchValidatedRecord(ctx context.Context, h address.ActionHash) (record.Record, error) {
	envelope, err := s.RawAction(ctx, h)
	if err != nil {
		return record.Record{}, err
	}
	rec, err := OpenRecord(ctx, h, envelope, s)
	if err != nil {
		s.log.Warn("record failed validation", "action", h.String(), "err", err)
		return record.Record{}, err
	}
	return rec, nil
}

// FetchEntry returns the entry at h.
func (s *Store) FetchEntry(ctx context.Context, h address.EntryHash) (record.Entry, error) {
	b, err := s.RawEntry(ctx, h)
	if err != nil {
		return record.Entry{}, err
	}
	e, err := OpenEntry(h, b)
	if err != nil {
		s.log.Warn("entry failed validation", "entry", h.String(), "err", err)
		return record.Entry{}, err
	}
	return e, nil
}

// RawAction returns the stored envelope bytes at h without decoding them.
func (s *Store) RawAction(ctx context.Context, h address.ActionHash) ([]byte, error) {
	return s.get(ctx, h.ContentHash)
}

// RawEntry returns the stored entry bytes at h without decoding them.
func (s *Store) RawEntry(ctx context.Context, h address.EntryHash) ([]byte, error) {
	return s.get(ctx, h.ContentHash)
}

func (s *Store) get(ctx context.Context, h address.ContentHash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fault.Wrap(fault.RecordNotFound, err, "%s %s", h.Kind(), h)
	}
	if !h.Defined() {
		return nil, fault.New(fault.RecordNotFound, "undefined address")
	}
	b, err := s.cas.Get(h.StorageKey())
	if err != nil {
		if storage.IsIntegrity(err) {
			s.log.Warn("stored block does not match its address", "kind", h.Kind().String(), "address", h.String())
		}
		return nil, fault.Wrap(fault.RecordNotFound, err, "%s %s", h.Kind(), h)
	}
	return b, nil
}

// Commit validates a signed envelope and its entry, then stores both. The
// entry is written first so that a stored action never points at a missing
// entry.
func (s *Store) Commit(envelope []byte, entry *record.Entry) (record.SignedAction, error) {
	signed, err := record.OpenSigned(envelope)
	if err != nil {
		return record.SignedAction{}, err
	}
	creation, isCreation := record.AsEntryCreation(signed.Action)
	switch {
	case isCreation && entry == nil:
		return record.SignedAction{}, errors.New("ledger: creation action committed without its entry")
	case !isCreation && entry != nil:
		return record.SignedAction{}, errors.New("ledger: entry committed with a non-creation action")
	}
	if entry != nil {
		if err := checkEntry(creation, *entry); err != nil {
			return record.SignedAction{}, err
		}
		b, err := entry.Encode()
		if err != nil {
			return record.SignedAction{}, err
		}
		if _, err := s.cas.Put(b); err != nil {
			return record.SignedAction{}, err
		}
	}
	if _, err := s.cas.Put(envelope); err != nil {
		return record.SignedAction{}, err
	}
	s.log.Debug("committed", "action", signed.Hash.String(), "kind", signed.Action.Kind().String())
	return signed, nil
}

// OpenRecord turns envelope bytes fetched for h into a validated record,
// pulling the entry of a creation action from entries.
func OpenRecord(ctx context.Context, h address.ActionHash, envelope []byte, entries EntrySource) (record.Record, error) {
	signed, err := record.OpenSigned(envelope)
	if err != nil {
		return record.Record{}, fault.Wrap(fault.RecordNotFound, err, "action %s", h)
	}
	if !signed.Hash.Equal(h.ContentHash) {
		return record.Record{}, fault.New(fault.RecordNotFound, "action %s: envelope hashes to %s", h, signed.Hash)
	}
	rec := record.Record{Signed: signed}
	creation, ok := record.AsEntryCreation(signed.Action)
	if !ok {
		return rec, nil
	}
	e, err := entries.FetchEntry(ctx, creation.EntryHash)
	if err != nil {
		if fault.IsKind(err, fault.RecordNotFound) {
			return record.Record{}, err
		}
		return record.Record{}, fault.Wrap(fault.RecordNotFound, err, "entry of action %s", h)
	}
	if err := checkEntry(creation, e); err != nil {
		return record.Record{}, fault.Wrap(fault.RecordNotFound, err, "action %s", h)
	}
	rec.Entry = &e
	return rec, nil
}

// OpenEntry decodes entry bytes fetched for h, rejecting anything that is not
// the canonical encoding of an entry at that address.
func OpenEntry(h address.EntryHash, b []byte) (record.Entry, error) {
	e, err := record.DecodeEntry(b)
	if err != nil {
		return record.Entry{}, fault.Wrap(fault.RecordNotFound, err, "entry %s", h)
	}
	canonical, err := e.Encode()
	if err != nil || !bytes.Equal(canonical, b) {
		return record.Entry{}, fault.New(fault.RecordNotFound, "entry %s: not canonically encoded", h)
	}
	if got := address.HashEntry(b); !got.Equal(h.ContentHash) {
		return record.Entry{}, fault.New(fault.RecordNotFound, "entry %s: bytes hash to %s", h, got)
	}
	return e, nil
}

func checkEntry(c record.EntryCreation, e record.Entry) error {
	if e.Kind != c.EntryType.Kind {
		return fmt.Errorf("ledger: entry kind %s does not match declared %s", e.Kind, c.EntryType)
	}
	h, err := e.Hash()
	if err != nil {
		return err
	}
	if !h.Equal(c.EntryHash.ContentHash) {
		return fmt.Errorf("ledger: entry hash %s does not match declared %s", h, c.EntryHash)
	}
	return nil
}
