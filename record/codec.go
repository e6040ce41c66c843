package record

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/sign"
)

var (
	ErrNotCanonical      = errors.New("record: encoding is not canonical")
	ErrUnknownActionKind = errors.New("record: unknown action kind")
	ErrAuthorMismatch    = errors.New("record: signer is not the action author")
)

var (
	encMode    cbor.EncMode
	decMode    cbor.DecMode
	anyDecMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	anyDecMode, err = cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

type wireAction struct {
	Kind ActionKind      `cbor:"kind"`
	Body cbor.RawMessage `cbor:"body"`
}

type wireSigned struct {
	Action    cbor.RawMessage `cbor:"action"`
	Signature []byte          `cbor:"signature"`
}

// EncodeAction returns the canonical encoding of a, the bytes its author signs.
func EncodeAction(a Action) ([]byte, error) {
	if a == nil || !a.Kind().Valid() {
		return nil, ErrUnknownActionKind
	}
	body, err := encMode.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("record: encode %s: %w", a.Kind(), err)
	}
	return encMode.Marshal(wireAction{Kind: a.Kind(), Body: body})
}

// DecodeAction decodes an encoding produced by EncodeAction.
func DecodeAction(b []byte) (Action, error) {
	var w wireAction
	if err := decMode.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("record: decode action: %w", err)
	}
	a, err := decodeBody(w.Kind, w.Body)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func decodeBody(kind ActionKind, body []byte) (Action, error) {
	switch kind {
	case KindDna:
		return decodeAs[Dna](body)
	case KindAgentValidationPkg:
		return decodeAs[AgentValidationPkg](body)
	case KindInitZomesComplete:
		return decodeAs[InitZomesComplete](body)
	case KindCreateLink:
		return decodeAs[CreateLink](body)
	case KindDeleteLink:
		return decodeAs[DeleteLink](body)
	case KindOpenChain:
		return decodeAs[OpenChain](body)
	case KindCloseChain:
		return decodeAs[CloseChain](body)
	case KindCreate:
		return decodeAs[Create](body)
	case KindUpdate:
		return decodeAs[Update](body)
	case KindDelete:
		return decodeAs[Delete](body)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownActionKind, kind)
	}
}

func decodeAs[A Action](body []byte) (Action, error) {
	var a A
	if err := decMode.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("record: decode %s: %w", a.Kind(), err)
	}
	return a, nil
}

// Sign encodes and signs a, returning the signed action and the envelope
// bytes to store. The action address covers the whole envelope, so the
// signature is bound to the address as well.
func Sign(a Action, s sign.Signer) (SignedAction, []byte, error) {
	if !a.Common().Author.Equal(s.Key()) {
		return SignedAction{}, nil, ErrAuthorMismatch
	}
	actionBytes, err := EncodeAction(a)
	if err != nil {
		return SignedAction{}, nil, err
	}
	sig, err := s.Sign(actionBytes)
	if err != nil {
		return SignedAction{}, nil, fmt.Errorf("record: sign %s: %w", a.Kind(), err)
	}
	envelope, err := encMode.Marshal(wireSigned{Action: actionBytes, Signature: sig})
	if err != nil {
		return SignedAction{}, nil, err
	}
	return SignedAction{Hash: address.HashAction(envelope), Action: a, Signature: sig}, envelope, nil
}

// OpenSigned decodes a signed envelope, rejecting non-canonical encodings and
// signatures that do not verify against the action's author.
func OpenSigned(envelope []byte) (SignedAction, error) {
	var w wireSigned
	if err := decMode.Unmarshal(envelope, &w); err != nil {
		return SignedAction{}, fmt.Errorf("record: decode signed action: %w", err)
	}
	a, err := DecodeAction(w.Action)
	if err != nil {
		return SignedAction{}, err
	}
	canonical, err := EncodeAction(a)
	if err != nil {
		return SignedAction{}, err
	}
	if !bytes.Equal(canonical, w.Action) {
		return SignedAction{}, ErrNotCanonical
	}
	reenc, err := encMode.Marshal(w)
	if err != nil {
		return SignedAction{}, err
	}
	if !bytes.Equal(reenc, envelope) {
		return SignedAction{}, ErrNotCanonical
	}
	if err := sign.Verify(a.Common().Author, w.Action, w.Signature); err != nil {
		return SignedAction{}, fmt.Errorf("record: %s by %s: %w", a.Kind(), a.Common().Author, err)
	}
	return SignedAction{Hash: address.HashAction(envelope), Action: a, Signature: w.Signature}, nil
}
