package address

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"xdao.co/ledgerkit/fault"
)

func TestLinkDirectionEncoding(t *testing.T) {
	d := LinkDirection{
		Base:   HashAction([]byte("post")).ContentHash,
		Target: HashExternal([]byte("https://example.org")).ContentHash,
	}
	require.NoError(t, d.Validate())

	js, err := json.Marshal(d)
	require.NoError(t, err)
	var fromJSON LinkDirection
	require.NoError(t, json.Unmarshal(js, &fromJSON))
	require.True(t, fromJSON.Base.Equal(d.Base))
	require.True(t, fromJSON.Target.Equal(d.Target))
	require.Equal(t, KindExternal, fromJSON.Target.Kind())

	cb, err := cbor.Marshal(d)
	require.NoError(t, err)
	var fromCBOR LinkDirection
	require.NoError(t, cbor.Unmarshal(cb, &fromCBOR))
	require.True(t, fromCBOR.Base.Equal(d.Base))
	require.True(t, fromCBOR.Target.Equal(d.Target))

	r := d.Reverse()
	require.True(t, r.Base.Equal(d.Target))
	require.True(t, r.Target.Equal(d.Base))
}

func TestLinkDirectionValidate(t *testing.T) {
	err := LinkDirection{Target: HashEntry([]byte("e")).ContentHash}.Validate()
	require.True(t, fault.IsKind(err, fault.InvalidHashString))

	err = LinkDirection{Base: HashEntry([]byte("e")).ContentHash}.Validate()
	require.True(t, fault.IsKind(err, fault.InvalidHashString))

	var bad LinkDirection
	require.Error(t, json.Unmarshal([]byte(`{"base":"not-a-hash","target":""}`), &bad))
}
