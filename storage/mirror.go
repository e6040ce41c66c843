package storage

import (
	"bytes"
	"errors"

	"github.com/ipfs/go-cid"
)

// Mirror writes every block to all of its stores and reads from them in
// order. A store that is missing a block, or holds a copy that no longer
// matches its key, is skipped in favour of the next one.
//
// Store order is the slice order; callers MUST supply a fixed order.
type Mirror struct {
	Stores []CAS
}

var _ CAS = Mirror{}

func (m Mirror) Put(b []byte) (cid.Cid, error) {
	if len(m.Stores) == 0 {
		return cid.Undef, errors.New("storage: Mirror has no stores")
	}
	var want cid.Cid
	for i, s := range m.Stores {
		got, err := s.Put(b)
		if err != nil {
			return cid.Undef, err
		}
		if i == 0 {
			want = got
			continue
		}
		if !bytes.Equal(got.Hash(), want.Hash()) {
			return cid.Undef, ErrCIDMismatch
		}
	}
	return want, nil
}

func (m Mirror) Get(id cid.Cid) ([]byte, error) {
	var firstErr error
	for _, s := range m.Stores {
		b, err := s.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) || IsIntegrity(err) {
			if firstErr == nil || IsNotFound(firstErr) {
				firstErr = err
			}
			continue
		}
		return nil, err
	}
	if firstErr == nil {
		return nil, ErrNotFound
	}
	return nil, firstErr
}

func (m Mirror) Has(id cid.Cid) bool {
	for _, s := range m.Stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}
