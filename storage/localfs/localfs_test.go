package localfs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgerkit/cidutil"
	"xdao.co/ledgerkit/storage"
	"xdao.co/ledgerkit/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		cas, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return cas
	})
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	cas, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := []byte("original")
	id, err := cas.Put(orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the stored object out-of-band.
	path, err := cas.pathFor(id)
	if err != nil {
		t.Fatalf("pathFor failed: %v", err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err = cas.Get(id)
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get mismatch: got %v want %v", err, storage.ErrCIDMismatch)
	}

	// Put must not repair or overwrite the corrupted object.
	_, err = cas.Put(orig)
	if !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}

	wantID, err := cidutil.CIDv1RawSHA256CID(orig)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
	}
	if !id.Equals(wantID) {
		t.Fatalf("CID mismatch: got %s want %s", id, wantID)
	}
}

func TestLocalFS_KeyedByDigestAcrossCodecs(t *testing.T) {
	cas, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	b := []byte("tagged")
	if _, err := cas.Put(b); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	tagged, err := cidutil.Sum(cidutil.CodecEntry, b)
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	got, err := cas.Get(tagged)
	if err != nil {
		t.Fatalf("Get by tagged CID failed: %v", err)
	}
	if !bytes.Equal(got, b) {
		t.Fatalf("Get: got %q want %q", got, b)
	}
	if !cas.Has(tagged) {
		t.Fatalf("Has by tagged CID = false")
	}

	identity := cid.NewCidV1(cid.Raw, []byte{0x00, 0x03, 'a', 'b', 'c'})
	if _, err := cas.Get(identity); !errors.Is(err, storage.ErrInvalidCID) {
		t.Fatalf("Get identity-hash CID: got %v want %v", err, storage.ErrInvalidCID)
	}
}

func TestLocalFS_NoTempFilesLeft(t *testing.T) {
	root := t.TempDir()
	cas, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, s := range []string{"a", "b", "c"} {
		if _, err := cas.Put([]byte(s)); err != nil {
			t.Fatalf("Put(%q) failed: %v", s, err)
		}
	}
	matches, err := filepath.Glob(filepath.Join(root, "*", ".put-*"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}

func TestOpenAllMirrors(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	cas, err := OpenAll(first, second)
	if err != nil {
		t.Fatalf("OpenAll failed: %v", err)
	}
	id, err := cas.Put([]byte("mirrored"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for _, dir := range []string{first, second} {
		one, err := New(dir)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", dir, err)
		}
		if !one.Has(id) {
			t.Fatalf("%s is missing the mirrored block", dir)
		}
	}

	if _, err := OpenAll(); err == nil {
		t.Fatalf("expected OpenAll with no directories to fail")
	}
}
