// Package testkit holds the conformance suite every storage.CAS must pass.
package testkit

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgerkit/cidutil"
	"xdao.co/ledgerkit/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, ledger storage")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		if _, err := cas.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("LookupIgnoresCodec", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("entry bytes")
		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		for _, codec := range []uint64{cidutil.CodecAction, cidutil.CodecEntry, cidutil.CodecExternal} {
			tagged, err := cidutil.Sum(codec, b)
			if err != nil {
				t.Fatalf("Sum failed: %v", err)
			}
			got, err := cas.Get(cidutil.StorageKey(tagged))
			if err != nil {
				t.Fatalf("Get(StorageKey(0x%x)) failed: %v", codec, err)
			}
			if !bytes.Equal(got, b) {
				t.Fatalf("Get(StorageKey(0x%x)) bytes mismatch", codec)
			}
		}
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("do not alias")
		id, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		b[0] = 'X'
		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		got[1] = 'Y'
		again, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get(2) failed: %v", err)
		}
		if string(again) != "do not alias" {
			t.Fatalf("stored bytes were aliased: %q", again)
		}
	})

	t.Run("ConcurrentPut", func(t *testing.T) {
		cas := newCAS(t)
		var wg sync.WaitGroup
		errs := make(chan error, 32)
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := cas.Put([]byte(fmt.Sprintf("block-%d", i%4))); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("concurrent Put failed: %v", err)
		}
		for i := 0; i < 4; i++ {
			id, _ := cidutil.CIDv1RawSHA256CID([]byte(fmt.Sprintf("block-%d", i)))
			if !cas.Has(id) {
				t.Fatalf("block-%d missing after concurrent Put", i)
			}
		}
	})
}
