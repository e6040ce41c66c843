package address

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
)

// Hashes travel as binary CIDs inside CBOR and as their text form in JSON.

func (h ContentHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *ContentHash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = ContentHash{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h ContentHash) MarshalCBOR() ([]byte, error) { return cbor.Marshal(h.Bytes()) }

func (h *ContentHash) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*h = ContentHash{}
		return nil
	}
	id, err := cid.Cast(raw)
	if err != nil {
		return invalidHash("binary cid", err)
	}
	parsed, err := FromCID(id)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h *ActionHash) UnmarshalText(text []byte) error {
	return unmarshalNarrowed(text, (*ContentHash).UnmarshalText, &h.ContentHash, KindAction)
}

func (h *ActionHash) UnmarshalCBOR(data []byte) error {
	return unmarshalNarrowed(data, (*ContentHash).UnmarshalCBOR, &h.ContentHash, KindAction)
}

func (h *EntryHash) UnmarshalText(text []byte) error {
	return unmarshalNarrowed(text, (*ContentHash).UnmarshalText, &h.ContentHash, KindEntry)
}

func (h *EntryHash) UnmarshalCBOR(data []byte) error {
	return unmarshalNarrowed(data, (*ContentHash).UnmarshalCBOR, &h.ContentHash, KindEntry)
}

func (h *ExternalHash) UnmarshalText(text []byte) error {
	return unmarshalNarrowed(text, (*ContentHash).UnmarshalText, &h.ContentHash, KindExternal)
}

func (h *ExternalHash) UnmarshalCBOR(data []byte) error {
	return unmarshalNarrowed(data, (*ContentHash).UnmarshalCBOR, &h.ContentHash, KindExternal)
}

func unmarshalNarrowed(data []byte, fn func(*ContentHash, []byte) error, dst *ContentHash, want Kind) error {
	var h ContentHash
	if err := fn(&h, data); err != nil {
		return err
	}
	if h.Defined() {
		if err := expectKind(h, want); err != nil {
			return err
		}
	}
	*dst = h
	return nil
}
