// Package sign provides the agent keys and signatures that authenticate
// ledger actions.
//
// An action is signed over the sha3-256 digest of its canonical encoding.
// Supported schemes:
// - ed25519
// - dilithium3 (post-quantum)
package sign

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

var (
	ErrUnsupportedAlg = errors.New("sign: unsupported signature algorithm")
	ErrInvalidKey     = errors.New("sign: invalid public key")
	ErrBadSignature   = errors.New("sign: signature verification failed")
)

// AgentKey identifies the author of an action.
type AgentKey struct {
	Alg string `json:"alg"`
	Key []byte `json:"key"`
}

// String renders the key as "<alg>:<base64>".
func (k AgentKey) String() string {
	if k.Alg == "" {
		return ""
	}
	return k.Alg + ":" + base64.StdEncoding.EncodeToString(k.Key)
}

func (k AgentKey) Equal(o AgentKey) bool {
	return k.Alg == o.Alg && string(k.Key) == string(o.Key)
}

// ParseAgentKey parses the "<alg>:<base64>" form produced by String.
func ParseAgentKey(s string) (AgentKey, error) {
	alg, enc, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return AgentKey{}, fmt.Errorf("sign: invalid agent key encoding %q", s)
	}
	pub, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return AgentKey{}, fmt.Errorf("sign: invalid agent key base64: %w", err)
	}
	k := AgentKey{Alg: alg, Key: pub}
	if err := k.Validate(); err != nil {
		return AgentKey{}, err
	}
	return k, nil
}

// Validate checks the key length for the declared algorithm.
func (k AgentKey) Validate() error {
	switch k.Alg {
	case AlgEd25519:
		if len(k.Key) != ed25519.PublicKeySize {
			return fmt.Errorf("%w: ed25519 key is %d bytes", ErrInvalidKey, len(k.Key))
		}
		return nil
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(k.Key); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlg, k.Alg)
	}
}

// Digest is the message actually signed for a given encoded action.
func Digest(message []byte) []byte {
	s := sha3.Sum256(message)
	return s[:]
}

// Signer signs encoded actions on behalf of one agent.
type Signer interface {
	Key() AgentKey
	Sign(message []byte) ([]byte, error)
}

type ed25519Signer struct {
	priv ed25519.PrivateKey
	key  AgentKey
}

// NewEd25519 returns a Signer for the ed25519 key derived from a 32-byte seed.
func NewEd25519(seed []byte) (Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("sign: ed25519 seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &ed25519Signer{priv: priv, key: AgentKey{Alg: AlgEd25519, Key: append([]byte(nil), pub...)}}, nil
}

func (s *ed25519Signer) Key() AgentKey { return s.key }

func (s *ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, Digest(message)), nil
}

type dilithium3Signer struct {
	priv *mode3.PrivateKey
	key  AgentKey
}

// NewDilithium3 returns a Signer for the dilithium3 key derived from a seed.
func NewDilithium3(seed []byte) (Signer, error) {
	if len(seed) != mode3.SeedSize {
		return nil, fmt.Errorf("sign: dilithium3 seed must be %d bytes", mode3.SeedSize)
	}
	var s [mode3.SeedSize]byte
	copy(s[:], seed)
	pub, priv := mode3.NewKeyFromSeed(&s)
	return &dilithium3Signer{priv: priv, key: AgentKey{Alg: AlgDilithium3, Key: pub.Bytes()}}, nil
}

func (s *dilithium3Signer) Key() AgentKey { return s.key }

func (s *dilithium3Signer) Sign(message []byte) ([]byte, error) {
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, Digest(message), sig)
	return sig, nil
}

// New returns a Signer for alg derived from seed.
func New(alg string, seed []byte) (Signer, error) {
	switch alg {
	case AlgEd25519:
		return NewEd25519(seed)
	case AlgDilithium3:
		return NewDilithium3(seed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}

// Verify checks sig over message for key.
func Verify(key AgentKey, message, sig []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	digest := Digest(message)
	switch key.Alg {
	case AlgEd25519:
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(key.Key), digest, sig) {
			return ErrBadSignature
		}
		return nil
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(key.Key); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		if len(sig) != mode3.SignatureSize || !mode3.Verify(&pk, digest, sig) {
			return ErrBadSignature
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlg, key.Alg)
	}
}
