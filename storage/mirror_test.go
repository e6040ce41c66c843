package storage_test

import (
	"errors"
	"testing"

	"xdao.co/ledgerkit/storage"
	"xdao.co/ledgerkit/storage/testkit"
)

func TestMirror_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.Mirror{Stores: []storage.CAS{storage.NewMemCAS(), storage.NewMemCAS()}}
	})
}

func TestMirror_WritesEverywhere(t *testing.T) {
	a, b := storage.NewMemCAS(), storage.NewMemCAS()
	m := storage.Mirror{Stores: []storage.CAS{a, b}}

	id, err := m.Put([]byte("block"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatalf("block not written to every store: a=%v b=%v", a.Has(id), b.Has(id))
	}
}

func TestMirror_ReadFallsBackPastBadCopies(t *testing.T) {
	a, b := storage.NewMemCAS(), storage.NewMemCAS()
	m := storage.Mirror{Stores: []storage.CAS{a, b}}
	id, err := m.Put([]byte("block"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	a.Corrupt(id, []byte("rot"))
	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get with one bad copy failed: %v", err)
	}
	if string(got) != "block" {
		t.Fatalf("Get: got %q want %q", got, "block")
	}

	b.Corrupt(id, []byte("rot"))
	_, err = m.Get(id)
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get with no good copy: got %v want %v", err, storage.ErrCIDMismatch)
	}
}

func TestMirror_Empty(t *testing.T) {
	if _, err := (storage.Mirror{}).Put([]byte("x")); err == nil {
		t.Fatalf("expected Put on an empty mirror to fail")
	}
}
