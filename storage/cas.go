// Package storage defines the block store the ledger is kept in.
package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable block store.
//
// Contract:
// - Keys are CIDv1 (raw + sha2-256) derived from the bytes written.
// - Put MUST be idempotent; writing different bytes under an existing key fails with ErrImmutable.
// - Get MUST return ErrNotFound when the key is absent and ErrCIDMismatch when stored bytes no longer hash to it.
// - Has never errors; an undefined key is simply absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
