// Package localfs keeps ledger blocks in a directory tree.
package localfs

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/ledgerkit/cidutil"
	"xdao.co/ledgerkit/storage"
)

// CAS is a local filesystem-backed content-addressable store.
//
// Blocks are stored immutably under the hex sha2-256 digest of their bytes,
// fanned out by the first two hex characters. Writes go through a temporary
// file in the same directory and are renamed into place, so a reader never
// sees a partial block.
type CAS struct {
	root string
}

// New constructs a filesystem CAS rooted at root. The directory will be created if needed.
func New(root string) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &CAS{root: root}, nil
}

// Root returns the directory the store was opened on.
func (c *CAS) Root() string { return c.root }

func (c *CAS) Put(b []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return cid.Undef, err
	}
	path, err := c.pathFor(id)
	if err != nil {
		return cid.Undef, err
	}

	if _, err := os.Stat(path); err == nil {
		existing, rerr := c.Get(id)
		if rerr != nil || !bytes.Equal(existing, b) {
			// Unreadable or altered blocks are never repaired in place.
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cid.Undef, err
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return cid.Undef, err
	}
	tmpName := tmp.Name()
	fail := func(err error) (cid.Cid, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return cid.Undef, err
	}
	if _, err := tmp.Write(b); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		_ = os.Remove(tmpName)
		return cid.Undef, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return cid.Undef, err
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	path, err := c.pathFor(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	got, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(got.Hash(), id.Hash()) {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	path, err := c.pathFor(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// pathFor maps a key to its block file. Only sha2-256 keys are accepted.
func (c *CAS) pathFor(id cid.Cid) (string, error) {
	if !id.Defined() {
		return "", storage.ErrInvalidCID
	}
	dm, err := multihash.Decode(id.Hash())
	if err != nil || dm.Code != multihash.SHA2_256 {
		return "", fmt.Errorf("%w: %s", storage.ErrInvalidCID, id)
	}
	name := hex.EncodeToString(dm.Digest)
	return filepath.Join(c.root, name[:2], name), nil
}

// OpenAll opens a store in each directory. With more than one directory the
// stores are combined into a storage.Mirror, in the order given.
func OpenAll(dirs ...string) (storage.CAS, error) {
	if len(dirs) == 0 {
		return nil, errors.New("localfs: at least one directory is required")
	}
	stores := make([]storage.CAS, 0, len(dirs))
	for _, dir := range dirs {
		cas, err := New(dir)
		if err != nil {
			return nil, err
		}
		stores = append(stores, cas)
	}
	if len(stores) == 1 {
		return stores[0], nil
	}
	return storage.Mirror{Stores: stores}, nil
}
