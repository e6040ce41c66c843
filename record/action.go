// Package record defines ledger actions, entries and records, and their
// canonical CBOR encoding.
//
// Action is a closed variant: exactly the ten struct types in this file
// implement it. Code that branches over actions should switch on Kind() or
// type-switch over these types and treat anything else as unreachable.
package record

import (
	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/sign"
)

// Header holds the fields every action carries.
type Header struct {
	Author     sign.AgentKey       `json:"author"`
	Timestamp  int64               `json:"timestamp"` // unix microseconds
	ActionSeq  uint32              `json:"action_seq"`
	PrevAction *address.ActionHash `json:"prev_action,omitempty"`
}

// Common returns the shared action header.
func (h Header) Common() Header { return h }

// Action is implemented by the ten action variants. Because the methods have
// value receivers, pointers to the variants satisfy Action too; Value folds
// them back to the value form.
type Action interface {
	Kind() ActionKind
	Common() Header
	isAction()
}

// Value returns a with a pointer variant dereferenced. A nil interface or a
// nil pointer yields nil.
func Value(a Action) Action {
	switch v := a.(type) {
	case nil:
		return nil
	case *Dna:
		return deref(v)
	case *AgentValidationPkg:
		return deref(v)
	case *InitZomesComplete:
		return deref(v)
	case *CreateLink:
		return deref(v)
	case *DeleteLink:
		return deref(v)
	case *OpenChain:
		return deref(v)
	case *CloseChain:
		return deref(v)
	case *Create:
		return deref(v)
	case *Update:
		return deref(v)
	case *Delete:
		return deref(v)
	default:
		return a
	}
}

func deref[A Action](p *A) Action {
	if p == nil {
		return nil
	}
	return *p
}

type Dna struct {
	Header
	DnaHash []byte `json:"dna_hash"`
}

type AgentValidationPkg struct {
	Header
	MembraneProof []byte `json:"membrane_proof,omitempty"`
}

type InitZomesComplete struct {
	Header
}

type CreateLink struct {
	Header
	BaseAddress   address.ContentHash `json:"base_address"`
	TargetAddress address.ContentHash `json:"target_address"`
	ZomeIndex     uint8               `json:"zome_index"`
	LinkType      uint8               `json:"link_type"`
	Tag           []byte              `json:"tag,omitempty"`
}

// Direction returns the base and target of the link.
func (l CreateLink) Direction() address.LinkDirection {
	return address.LinkDirection{Base: l.BaseAddress, Target: l.TargetAddress}
}

type DeleteLink struct {
	Header
	LinkAddAddress address.ActionHash  `json:"link_add_address"`
	BaseAddress    address.ContentHash `json:"base_address"`
}

type OpenChain struct {
	Header
	PrevDnaHash []byte `json:"prev_dna_hash"`
}

type CloseChain struct {
	Header
	NewDnaHash []byte `json:"new_dna_hash"`
}

type Create struct {
	Header
	EntryType EntryType         `json:"entry_type"`
	EntryHash address.EntryHash `json:"entry_hash"`
}

type Update struct {
	Header
	OriginalActionAddress address.ActionHash `json:"original_action_address"`
	OriginalEntryAddress  address.EntryHash  `json:"original_entry_address"`
	EntryType             EntryType          `json:"entry_type"`
	EntryHash             address.EntryHash  `json:"entry_hash"`
}

type Delete struct {
	Header
	DeletesAddress      address.ActionHash `json:"deletes_address"`
	DeletesEntryAddress address.EntryHash  `json:"deletes_entry_address"`
}

func (Dna) Kind() ActionKind                { return KindDna }
func (AgentValidationPkg) Kind() ActionKind { return KindAgentValidationPkg }
func (InitZomesComplete) Kind() ActionKind  { return KindInitZomesComplete }
func (CreateLink) Kind() ActionKind         { return KindCreateLink }
func (DeleteLink) Kind() ActionKind         { return KindDeleteLink }
func (OpenChain) Kind() ActionKind          { return KindOpenChain }
func (CloseChain) Kind() ActionKind         { return KindCloseChain }
func (Create) Kind() ActionKind             { return KindCreate }
func (Update) Kind() ActionKind             { return KindUpdate }
func (Delete) Kind() ActionKind             { return KindDelete }

func (Dna) isAction()                {}
func (AgentValidationPkg) isAction() {}
func (InitZomesComplete) isAction()  {}
func (CreateLink) isAction()         {}
func (DeleteLink) isAction()         {}
func (OpenChain) isAction()          {}
func (CloseChain) isAction()         {}
func (Create) isAction()             {}
func (Update) isAction()             {}
func (Delete) isAction()             {}

// EntryCreation is the common shape of Create and Update: everything a caller
// needs to fetch and type the entry, regardless of which action produced it.
type EntryCreation struct {
	Header
	Kind      ActionKind
	EntryType EntryType
	EntryHash address.EntryHash

	// OriginalActionAddress is set only when Kind is KindUpdate.
	OriginalActionAddress *address.ActionHash
}

// AsEntryCreation normalizes a Create or Update into an EntryCreation.
// It reports false for every other kind, and for nil.
func AsEntryCreation(a Action) (EntryCreation, bool) {
	switch v := Value(a).(type) {
	case Create:
		return EntryCreation{Header: v.Header, Kind: KindCreate, EntryType: v.EntryType, EntryHash: v.EntryHash}, true
	case Update:
		orig := v.OriginalActionAddress
		return EntryCreation{
			Header:                v.Header,
			Kind:                  KindUpdate,
			EntryType:             v.EntryType,
			EntryHash:             v.EntryHash,
			OriginalActionAddress: &orig,
		}, true
	default:
		return EntryCreation{}, false
	}
}
