package sign

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func seed(b byte) []byte { return bytes.Repeat([]byte{b}, 32) }

func TestSignVerify(t *testing.T) {
	for _, alg := range []string{AlgEd25519, AlgDilithium3} {
		t.Run(alg, func(t *testing.T) {
			s, err := New(alg, seed(0x42))
			require.NoError(t, err)
			require.NoError(t, s.Key().Validate())

			msg := []byte("encoded action")
			sig, err := s.Sign(msg)
			require.NoError(t, err)
			require.NoError(t, Verify(s.Key(), msg, sig))

			err = Verify(s.Key(), []byte("tampered"), sig)
			require.True(t, errors.Is(err, ErrBadSignature))
		})
	}
}

func TestSignerDeterministicKeys(t *testing.T) {
	a, err := NewEd25519(seed(1))
	require.NoError(t, err)
	b, err := NewEd25519(seed(1))
	require.NoError(t, err)
	require.True(t, a.Key().Equal(b.Key()))
}

func TestAgentKeyText(t *testing.T) {
	s, err := NewEd25519(seed(7))
	require.NoError(t, err)

	parsed, err := ParseAgentKey(s.Key().String())
	require.NoError(t, err)
	require.True(t, parsed.Equal(s.Key()))

	_, err = ParseAgentKey("ed25519:AAAA")
	require.True(t, errors.Is(err, ErrInvalidKey))
	_, err = ParseAgentKey("rsa:AAAA")
	require.True(t, errors.Is(err, ErrUnsupportedAlg))
	_, err = ParseAgentKey("no-separator")
	require.Error(t, err)
}

func TestBadSeed(t *testing.T) {
	_, err := New(AlgEd25519, []byte("short"))
	require.Error(t, err)
	_, err = New("rsa", seed(1))
	require.True(t, errors.Is(err, ErrUnsupportedAlg))
}
