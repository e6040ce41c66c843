package record

import (
	"fmt"

	"xdao.co/ledgerkit/address"
)

// EntryDef is the coordinate of an application entry type: the zome that
// defines it and the index of the type within that zome.
type EntryDef struct {
	ZomeIndex  uint8 `json:"zome_index"`
	EntryIndex uint8 `json:"entry_index"`
}

func (d EntryDef) String() string {
	return fmt.Sprintf("EntryDef(%d:%d)", d.ZomeIndex, d.EntryIndex)
}

// EntryType is the entry type declared by a creation action. App is set only
// for application entries.
type EntryType struct {
	Kind EntryKind `json:"kind"`
	App  *EntryDef `json:"app,omitempty"`
}

// AppEntryType declares an application entry of the given type.
func AppEntryType(def EntryDef) EntryType {
	return EntryType{Kind: EntryKindApp, App: &def}
}

func (t EntryType) String() string {
	if t.Kind == EntryKindApp && t.App != nil {
		return "App(" + t.App.String() + ")"
	}
	return t.Kind.String()
}

// Entry is an entry payload as stored in the ledger. Content holds the
// canonical CBOR encoding of the application value for App entries and the
// raw key bytes for AgentPubKey entries.
type Entry struct {
	Kind    EntryKind `json:"kind"`
	Content []byte    `json:"content"`
}

// NewAppEntry encodes v as an application entry.
func NewAppEntry(v any) (Entry, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return Entry{}, fmt.Errorf("record: encode app entry: %w", err)
	}
	return Entry{Kind: EntryKindApp, Content: b}, nil
}

// Encode returns the canonical encoding of e, the bytes its address covers.
func (e Entry) Encode() ([]byte, error) { return encMode.Marshal(e) }

// Hash returns the address of e.
func (e Entry) Hash() (address.EntryHash, error) {
	b, err := e.Encode()
	if err != nil {
		return address.EntryHash{}, err
	}
	return address.HashEntry(b), nil
}

// DecodeEntry decodes the canonical encoding produced by Encode.
func DecodeEntry(b []byte) (Entry, error) {
	var e Entry
	if err := decMode.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("record: decode entry: %w", err)
	}
	if e.Kind < EntryKindApp || e.Kind > EntryKindCapGrant {
		return Entry{}, fmt.Errorf("record: decode entry: unknown entry kind %d", e.Kind)
	}
	return e, nil
}

// DecodeContent decodes an App entry's content into T. Unknown fields,
// duplicate keys and type mismatches are all errors.
func DecodeContent[T any](e Entry) (T, error) {
	var out T
	if e.Kind != EntryKindApp {
		return out, fmt.Errorf("record: %s entry carries no app content", e.Kind)
	}
	if err := decMode.Unmarshal(e.Content, &out); err != nil {
		return out, err
	}
	return out, nil
}

// DecodeContentAny decodes an App entry's content into generic Go values,
// with string-keyed maps. Used for display.
func DecodeContentAny(e Entry) (any, error) {
	if e.Kind != EntryKindApp {
		return nil, fmt.Errorf("record: %s entry carries no app content", e.Kind)
	}
	var out any
	if err := anyDecMode.Unmarshal(e.Content, &out); err != nil {
		return nil, err
	}
	return out, nil
}
