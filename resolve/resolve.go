// Package resolve turns ledger addresses into typed values: it fetches
// records through a Fetcher, asserts action kinds, decodes app entries and
// walks revision chains back to their origin.
//
// A Resolver performs no writes, caches nothing and never retries. Each call
// issues zero or more sequential fetches and fails on the first error.
package resolve

import (
	"context"
	"log/slog"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/record"
)

// Fetcher is the record store a Resolver reads from. Both methods fail with
// fault.RecordNotFound when the object is absent or fails validation.
type Fetcher interface {
	FetchValidatedRecord(ctx context.Context, h address.ActionHash) (record.Record, error)
	FetchEntry(ctx context.Context, h address.EntryHash) (record.Entry, error)
}

// DefaultMaxChainDepth bounds TraceOrigin when Options.MaxChainDepth is unset.
const DefaultMaxChainDepth = 4096

type Options struct {
	Logger *slog.Logger

	// MaxChainDepth is the longest revision chain TraceOrigin will walk.
	MaxChainDepth int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "resolve")
	}
	if o.MaxChainDepth <= 0 {
		o.MaxChainDepth = DefaultMaxChainDepth
	}
	return o
}

// Resolver is immutable after construction and safe for concurrent use when
// its Fetcher is.
type Resolver struct {
	store Fetcher
	opts  Options
	log   *slog.Logger
}

func New(store Fetcher, opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{store: store, opts: opts, log: opts.Logger}
}

// Record fetches the validated record at h.
func (r *Resolver) Record(ctx context.Context, h address.ActionHash) (record.Record, error) {
	return r.store.FetchValidatedRecord(ctx, h)
}

// Action fetches only the signed action at h.
func (r *Resolver) Action(ctx context.Context, h address.ActionHash) (record.SignedAction, error) {
	rec, err := r.store.FetchValidatedRecord(ctx, h)
	if err != nil {
		return record.SignedAction{}, err
	}
	return rec.Signed, nil
}

// Entry fetches the entry at h.
func (r *Resolver) Entry(ctx context.Context, h address.EntryHash) (record.Entry, error) {
	return r.store.FetchEntry(ctx, h)
}
