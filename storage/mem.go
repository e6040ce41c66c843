package storage

import (
	"bytes"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgerkit/cidutil"
)

// MemCAS is an in-memory CAS keyed by multihash, so a lookup ignores the
// codec of the CID it is given. It is safe for concurrent use.
type MemCAS struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemCAS() *MemCAS {
	return &MemCAS{m: make(map[string][]byte)}
}

func (c *MemCAS) Put(b []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return cid.Undef, err
	}
	k := string(id.Hash())

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.m[k]; ok {
		if !bytes.Equal(existing, b) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}
	c.m[k] = append([]byte(nil), b...)
	return id, nil
}

func (c *MemCAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	c.mu.RLock()
	b, ok := c.m[string(id.Hash())]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := append([]byte(nil), b...)
	computed, err := cidutil.CIDv1RawSHA256CID(out)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(computed.Hash(), id.Hash()) {
		return nil, ErrCIDMismatch
	}
	return out, nil
}

func (c *MemCAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.m[string(id.Hash())]
	return ok
}

// Len returns the number of stored blocks.
func (c *MemCAS) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Corrupt overwrites the block stored under id without rehashing. Tests use it
// to simulate a store that returns bytes not matching their key.
func (c *MemCAS) Corrupt(id cid.Cid, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[string(id.Hash())] = append([]byte(nil), b...)
}
