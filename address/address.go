// Package address models the polymorphic content hashes that name ledger
// objects.
//
// A ContentHash is intrinsically tagged with the kind of object it names:
// an action, an entry, or an external reference. The tag lives in the
// address encoding itself (see cidutil), so classification never needs a
// fetch. ActionHash, EntryHash and ExternalHash are narrowed forms whose kind
// is guaranteed by construction.
package address

import (
	"bytes"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgerkit/cidutil"
)

// Kind is the intrinsic tag of a ContentHash.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAction
	KindEntry
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindEntry:
		return "entry"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

func (k Kind) codec() uint64 {
	switch k {
	case KindAction:
		return cidutil.CodecAction
	case KindEntry:
		return cidutil.CodecEntry
	case KindExternal:
		return cidutil.CodecExternal
	default:
		return 0
	}
}

func kindOfCodec(codec uint64) Kind {
	switch codec {
	case cidutil.CodecAction:
		return KindAction
	case cidutil.CodecEntry:
		return KindEntry
	case cidutil.CodecExternal:
		return KindExternal
	default:
		return KindUnknown
	}
}

// ContentHash is a tagged content address: any-linkable in ledger terms.
// The zero value is undefined.
type ContentHash struct {
	id cid.Cid
}

// ActionHash is a ContentHash known to name an action.
type ActionHash struct{ ContentHash }

// EntryHash is a ContentHash known to name an entry.
type EntryHash struct{ ContentHash }

// ExternalHash is a ContentHash known to name something outside the ledger.
type ExternalHash struct{ ContentHash }

// FromCID wraps id, rejecting CIDs that are not well-formed ledger addresses.
func FromCID(id cid.Cid) (ContentHash, error) {
	kind := kindOfCodec(id.Type())
	if !id.Defined() || kind == KindUnknown {
		return ContentHash{}, invalidHash(id.String(), nil)
	}
	if err := cidutil.Check(id, kind.codec()); err != nil {
		return ContentHash{}, invalidHash(id.String(), err)
	}
	return ContentHash{id: id}, nil
}

func sum(kind Kind, data []byte) ContentHash {
	id, err := cidutil.Sum(kind.codec(), data)
	if err != nil {
		// multihash.Sum only fails for unknown hash codes; sha2-256 is always registered.
		panic(err)
	}
	return ContentHash{id: id}
}

// HashAction returns the address of an encoded action.
func HashAction(encoded []byte) ActionHash { return ActionHash{sum(KindAction, encoded)} }

// HashEntry returns the address of an encoded entry.
func HashEntry(encoded []byte) EntryHash { return EntryHash{sum(KindEntry, encoded)} }

// HashExternal returns an external reference derived from arbitrary bytes.
func HashExternal(data []byte) ExternalHash { return ExternalHash{sum(KindExternal, data)} }

// Kind returns the intrinsic tag of h.
func (h ContentHash) Kind() Kind {
	if !h.id.Defined() {
		return KindUnknown
	}
	return kindOfCodec(h.id.Type())
}

// Classify returns the intrinsic tag of h.
func Classify(h ContentHash) Kind { return h.Kind() }

func (h ContentHash) Defined() bool { return h.id.Defined() }

// CID returns the kind-tagged CID behind h.
func (h ContentHash) CID() cid.Cid { return h.id }

// StorageKey returns the raw CID the addressed bytes are stored under.
func (h ContentHash) StorageKey() cid.Cid { return cidutil.StorageKey(h.id) }

// Digest returns the 32-byte sha2-256 digest of h.
func (h ContentHash) Digest() []byte {
	if !h.id.Defined() {
		return nil
	}
	mh := h.id.Hash()
	return append([]byte(nil), mh[len(mh)-32:]...)
}

// Any returns h as an untyped content hash. It exists so narrowed hashes can
// be passed where a ContentHash is expected without reaching into the
// embedded field.
func (h ContentHash) Any() ContentHash { return h }

func (h ContentHash) Equal(o ContentHash) bool { return h.id.Equals(o.id) }

// Bytes returns the binary CID form of h.
func (h ContentHash) Bytes() []byte {
	if !h.id.Defined() {
		return nil
	}
	return h.id.Bytes()
}

// Compare orders hashes by their binary form.
func Compare(a, b ContentHash) int { return bytes.Compare(a.Bytes(), b.Bytes()) }

func (h ContentHash) String() string { return cidutil.Text(h.id) }
