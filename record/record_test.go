package record

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/sign"
)

type post struct {
	Message     string `json:"message"`
	PublishedAt uint64 `json:"published_at"`
}

func testSigner(t *testing.T) sign.Signer {
	t.Helper()
	s, err := sign.NewEd25519(bytes.Repeat([]byte{0x11}, 32))
	require.NoError(t, err)
	return s
}

func TestSignOpenUpdate(t *testing.T) {
	s := testSigner(t)
	prev := address.HashAction([]byte("prev"))
	entry, err := NewAppEntry(post{Message: "hello", PublishedAt: 1})
	require.NoError(t, err)
	entryHash, err := entry.Hash()
	require.NoError(t, err)

	u := Update{
		Header:                Header{Author: s.Key(), Timestamp: 1700000000, ActionSeq: 4, PrevAction: &prev},
		OriginalActionAddress: address.HashAction([]byte("orig")),
		OriginalEntryAddress:  address.HashEntry([]byte("orig-entry")),
		EntryType:             AppEntryType(EntryDef{ZomeIndex: 0, EntryIndex: 2}),
		EntryHash:             entryHash,
	}

	signed, envelope, err := Sign(u, s)
	require.NoError(t, err)
	require.Equal(t, address.KindAction, signed.Hash.Kind())

	opened, err := OpenSigned(envelope)
	require.NoError(t, err)
	require.True(t, opened.Hash.Equal(signed.Hash.ContentHash))

	got, ok := opened.Action.(Update)
	require.True(t, ok, "got %T", opened.Action)
	require.True(t, got.OriginalActionAddress.Equal(u.OriginalActionAddress.ContentHash))
	require.Equal(t, uint8(2), got.EntryType.App.EntryIndex)
	require.True(t, got.PrevAction.Equal(prev.ContentHash))
}

func TestSignRejectsForeignAuthor(t *testing.T) {
	s := testSigner(t)
	other, err := sign.NewEd25519(bytes.Repeat([]byte{0x22}, 32))
	require.NoError(t, err)

	_, _, err = Sign(InitZomesComplete{Header: Header{Author: other.Key()}}, s)
	require.True(t, errors.Is(err, ErrAuthorMismatch))
}

func TestOpenSignedRejectsTamperedSignature(t *testing.T) {
	s := testSigner(t)
	signed, _, err := Sign(Dna{Header: Header{Author: s.Key()}, DnaHash: []byte("dna")}, s)
	require.NoError(t, err)

	actionBytes, err := EncodeAction(signed.Action)
	require.NoError(t, err)
	bad := append([]byte(nil), signed.Signature...)
	bad[0] ^= 0xff
	envelope, err := encMode.Marshal(wireSigned{Action: actionBytes, Signature: bad})
	require.NoError(t, err)

	_, err = OpenSigned(envelope)
	require.True(t, errors.Is(err, sign.ErrBadSignature), "got %v", err)
}

func TestOpenSignedRejectsNonCanonical(t *testing.T) {
	s := testSigner(t)
	a := InitZomesComplete{Header: Header{Author: s.Key(), ActionSeq: 3}}
	actionBytes, err := EncodeAction(a)
	require.NoError(t, err)
	sig, err := s.Sign(actionBytes)
	require.NoError(t, err)

	// Same content, map keys in non-canonical order.
	type reversed struct {
		Signature []byte          `cbor:"signature"`
		Action    cbor.RawMessage `cbor:"action"`
	}
	loose, err := cbor.EncOptions{Sort: cbor.SortNone}.EncMode()
	require.NoError(t, err)
	envelope, err := loose.Marshal(reversed{Signature: sig, Action: actionBytes})
	require.NoError(t, err)

	_, err = OpenSigned(envelope)
	require.True(t, errors.Is(err, ErrNotCanonical), "got %v", err)
}

func TestDecodeActionUnknownKind(t *testing.T) {
	b, err := encMode.Marshal(wireAction{Kind: 99, Body: cbor.RawMessage{0xa0}})
	require.NoError(t, err)
	_, err = DecodeAction(b)
	require.True(t, errors.Is(err, ErrUnknownActionKind))
}

func TestAsEntryCreation(t *testing.T) {
	def := AppEntryType(EntryDef{ZomeIndex: 1, EntryIndex: 0})
	c := Create{EntryType: def, EntryHash: address.HashEntry([]byte("e"))}
	got, ok := AsEntryCreation(c)
	require.True(t, ok)
	require.Equal(t, KindCreate, got.Kind)
	require.Nil(t, got.OriginalActionAddress)

	u := Update{EntryType: def, OriginalActionAddress: address.HashAction([]byte("o"))}
	got, ok = AsEntryCreation(u)
	require.True(t, ok)
	require.Equal(t, KindUpdate, got.Kind)
	require.NotNil(t, got.OriginalActionAddress)

	_, ok = AsEntryCreation(Delete{})
	require.False(t, ok)
}

func TestDecodeContentStrict(t *testing.T) {
	e, err := NewAppEntry(map[string]any{"message": "hi", "published_at": 3, "extra": true})
	require.NoError(t, err)

	_, err = DecodeContent[post](e)
	require.Error(t, err)

	ok, err := NewAppEntry(post{Message: "hi", PublishedAt: 3})
	require.NoError(t, err)
	p, err := DecodeContent[post](ok)
	require.NoError(t, err)
	require.Equal(t, post{Message: "hi", PublishedAt: 3}, p)

	_, err = DecodeContent[post](Entry{Kind: EntryKindAgentPubKey, Content: []byte("k")})
	require.Error(t, err)
}

func TestEntryEncodeDecode(t *testing.T) {
	e := Entry{Kind: EntryKindCapGrant, Content: []byte("grant")}
	b, err := e.Encode()
	require.NoError(t, err)
	got, err := DecodeEntry(b)
	require.NoError(t, err)
	require.Equal(t, e, got)

	bad, err := Entry{Kind: 42}.Encode()
	require.NoError(t, err)
	_, err = DecodeEntry(bad)
	require.Error(t, err)
}

func TestParseActionKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseActionKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
	require.Len(t, Kinds(), 10)
	_, err := ParseActionKind("Merge")
	require.Error(t, err)
}
