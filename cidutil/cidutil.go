// Package cidutil derives and encodes the CIDs behind ledger addresses.
//
// Every ledger address is a CIDv1 whose multihash is sha2-256 over the
// addressed bytes. The multicodec carries the address kind and is taken from
// the multicodec private-use range, so no public codec can be mistaken for a
// ledger address. The storage layer ignores the kind and keys blocks by the
// same multihash under the "raw" codec.
package cidutil

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

const (
	CodecAction   uint64 = 0x300a01
	CodecEntry    uint64 = 0x300e01
	CodecExternal uint64 = 0x300f01
)

// TextBase is the multibase used for the text form of ledger addresses.
const TextBase = multibase.Base64url

var textEncoder = multibase.MustNewEncoder(TextBase)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	return Sum(cid.Raw, data)
}

// Sum returns a CIDv1 with the given codec over the sha2-256 digest of data.
func Sum(codec uint64, data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(codec, sum), nil
}

// FromDigest builds a CIDv1 with the given codec around an existing
// 32-byte sha2-256 digest.
func FromDigest(codec uint64, digest []byte) (cid.Cid, error) {
	if len(digest) != 32 {
		return cid.Undef, fmt.Errorf("cidutil: digest must be 32 bytes, got %d", len(digest))
	}
	mh, err := multihash.Encode(digest, multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(codec, mh), nil
}

// StorageKey re-tags id with the raw codec, giving the key its bytes are
// stored under in a storage.CAS.
func StorageKey(id cid.Cid) cid.Cid {
	if !id.Defined() {
		return cid.Undef
	}
	return cid.NewCidV1(cid.Raw, id.Hash())
}

// Text renders id in the ledger text form (multibase base64url).
func Text(id cid.Cid) string {
	if !id.Defined() {
		return ""
	}
	return id.Encode(textEncoder)
}

// FromText decodes a ledger text address and checks that it is a CIDv1 with
// the given codec and a 32-byte sha2-256 multihash.
//
// Only the base64url multibase is accepted; the same bytes rendered in any
// other base are rejected so that every address has exactly one text form.
func FromText(s string, codec uint64) (cid.Cid, error) {
	if s == "" {
		return cid.Undef, errors.New("cidutil: empty address")
	}
	enc, data, err := multibase.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if enc != TextBase {
		return cid.Undef, fmt.Errorf("cidutil: unsupported multibase %q", rune(enc))
	}
	id, err := cid.Cast(data)
	if err != nil {
		return cid.Undef, err
	}
	if err := Check(id, codec); err != nil {
		return cid.Undef, err
	}
	return id, nil
}

// Check reports whether id is a CIDv1 with the given codec over a 32-byte
// sha2-256 multihash.
func Check(id cid.Cid, codec uint64) error {
	if !id.Defined() {
		return errors.New("cidutil: undefined cid")
	}
	if id.Version() != 1 {
		return fmt.Errorf("cidutil: cid version %d", id.Version())
	}
	if id.Type() != codec {
		return fmt.Errorf("cidutil: codec 0x%x, want 0x%x", id.Type(), codec)
	}
	dm, err := multihash.Decode(id.Hash())
	if err != nil {
		return err
	}
	if dm.Code != multihash.SHA2_256 || dm.Length != 32 {
		return fmt.Errorf("cidutil: multihash %s/%d, want sha2-256/32", dm.Name, dm.Length)
	}
	return nil
}
