package address

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"xdao.co/ledgerkit/fault"
)

func TestParseEachKind(t *testing.T) {
	cases := []struct {
		name string
		h    ContentHash
		want Kind
	}{
		{"action", HashAction([]byte("a")).ContentHash, KindAction},
		{"entry", HashEntry([]byte("e")).ContentHash, KindEntry},
		{"external", HashExternal([]byte("x")).ContentHash, KindExternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.h.String())
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Kind())
			require.Equal(t, tc.want, Classify(got))
			require.True(t, got.Equal(tc.h))
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "u", "hello", "uAAAA", HashAction([]byte("a")).CID().String()} {
		_, err := Parse(s)
		require.True(t, fault.IsKind(err, fault.InvalidHashString), "input %q: %v", s, err)
	}
}

func TestParseDHTRejectsExternal(t *testing.T) {
	ext := HashExternal([]byte("x"))
	_, err := ParseDHT(ext.String())
	require.True(t, fault.IsKind(err, fault.InvalidHashString))

	h, err := ParseDHT(HashEntry([]byte("e")).String())
	require.NoError(t, err)
	require.Equal(t, KindEntry, h.Kind())
}

func TestParseAmbiguousDecoderTable(t *testing.T) {
	h := HashAction([]byte("a"))
	_, err := parseWith(h.String(), []decoder{{KindAction}, {KindAction}})
	require.True(t, fault.IsKind(err, fault.AmbiguousHash))
}

func TestNarrowing(t *testing.T) {
	entry := HashEntry([]byte("e")).ContentHash
	_, err := NarrowToAction(entry)
	require.True(t, fault.IsKind(err, fault.HashKindMismatch))

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "action", fe.Expected)
	require.Equal(t, "entry", fe.Actual)

	action := HashAction([]byte("a")).ContentHash
	got, err := NarrowToAction(action)
	require.NoError(t, err)
	require.True(t, got.Equal(action))

	_, err = NarrowToEntry(action)
	require.True(t, fault.IsKind(err, fault.HashKindMismatch))
	_, err = NarrowToExternal(ContentHash{})
	require.True(t, fault.IsKind(err, fault.HashKindMismatch))
}

func TestParseTypedHelpers(t *testing.T) {
	a := HashAction([]byte("a"))
	got, err := ParseAction(a.String())
	require.NoError(t, err)
	require.True(t, got.Equal(a.ContentHash))

	_, err = ParseEntry(a.String())
	require.True(t, fault.IsKind(err, fault.HashKindMismatch))
}

type envelope struct {
	Any    ContentHash  `json:"any"`
	Action ActionHash   `json:"action"`
	Prev   *ActionHash  `json:"prev,omitempty"`
	Ext    ExternalHash `json:"ext"`
}

func TestCBORAndJSONEncoding(t *testing.T) {
	in := envelope{
		Any:    HashEntry([]byte("e")).ContentHash,
		Action: HashAction([]byte("a")),
		Ext:    HashExternal([]byte("x")),
	}

	b, err := cbor.Marshal(in)
	require.NoError(t, err)
	var out envelope
	require.NoError(t, cbor.Unmarshal(b, &out))
	require.True(t, out.Any.Equal(in.Any))
	require.True(t, out.Action.Equal(in.Action.ContentHash))
	require.Nil(t, out.Prev)

	j, err := json.Marshal(in)
	require.NoError(t, err)
	var jout envelope
	require.NoError(t, json.Unmarshal(j, &jout))
	require.True(t, jout.Ext.Equal(in.Ext.ContentHash))
}

func TestUnmarshalNarrowedRejectsWrongKind(t *testing.T) {
	b, err := cbor.Marshal(HashEntry([]byte("e")))
	require.NoError(t, err)

	var a ActionHash
	err = cbor.Unmarshal(b, &a)
	require.True(t, fault.IsKind(err, fault.HashKindMismatch), "got %v", err)
}

func TestDigest(t *testing.T) {
	h := HashAction([]byte("a"))
	require.Len(t, h.Digest(), 32)
	require.Nil(t, ContentHash{}.Digest())
	require.Equal(t, 0, Compare(h.ContentHash, h.Any()))
}
