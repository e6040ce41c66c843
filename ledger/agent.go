package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/record"
	"xdao.co/ledgerkit/sign"
)

var ErrNoGenesis = errors.New("ledger: agent chain has no genesis")

type AgentOptions struct {
	// Clock supplies action timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Agent appends actions to one author's source chain. Each appended action
// carries the next sequence number and points at the previous head.
//
// An Agent is not safe for concurrent use.
type Agent struct {
	store  *Store
	signer sign.Signer
	clock  func() time.Time

	seq  uint32
	head *address.ActionHash
}

func NewAgent(store *Store, signer sign.Signer, opts AgentOptions) *Agent {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Agent{store: store, signer: signer, clock: opts.Clock}
}

// Key returns the author key of the chain.
func (a *Agent) Key() sign.AgentKey { return a.signer.Key() }

// Head returns the address of the last appended action.
func (a *Agent) Head() (address.ActionHash, bool) {
	if a.head == nil {
		return address.ActionHash{}, false
	}
	return *a.head, true
}

// Resume continues an existing chain whose last action is head.
func (a *Agent) Resume(ctx context.Context, head address.ActionHash) error {
	rec, err := a.store.FetchValidatedRecord(ctx, head)
	if err != nil {
		return err
	}
	hdr := rec.Action().Common()
	if !hdr.Author.Equal(a.signer.Key()) {
		return fmt.Errorf("ledger: %s was authored by %s", head, hdr.Author)
	}
	a.seq = hdr.ActionSeq + 1
	a.head = &head
	return nil
}

// Genesis writes the four actions that open a chain: Dna,
// AgentValidationPkg, the author's AgentPubKey entry and InitZomesComplete.
func (a *Agent) Genesis(ctx context.Context, dnaHash, membraneProof []byte) (address.ActionHash, error) {
	if a.head != nil {
		return address.ActionHash{}, errors.New("ledger: chain already has a genesis")
	}
	if _, err := a.Append(ctx, record.Dna{DnaHash: dnaHash}, nil); err != nil {
		return address.ActionHash{}, err
	}
	if _, err := a.Append(ctx, record.AgentValidationPkg{MembraneProof: membraneProof}, nil); err != nil {
		return address.ActionHash{}, err
	}
	key := record.Entry{Kind: record.EntryKindAgentPubKey, Content: a.signer.Key().Key}
	keyHash, err := key.Hash()
	if err != nil {
		return address.ActionHash{}, err
	}
	create := record.Create{EntryType: record.EntryType{Kind: record.EntryKindAgentPubKey}, EntryHash: keyHash}
	if _, err := a.Append(ctx, create, &key); err != nil {
		return address.ActionHash{}, err
	}
	signed, err := a.Append(ctx, record.InitZomesComplete{}, nil)
	if err != nil {
		return address.ActionHash{}, err
	}
	return signed.Hash, nil
}

// Create commits payload as a new App entry of type def.
func (a *Agent) Create(ctx context.Context, def record.EntryDef, payload any) (record.SignedAction, error) {
	e, err := record.NewAppEntry(payload)
	if err != nil {
		return record.SignedAction{}, err
	}
	h, err := e.Hash()
	if err != nil {
		return record.SignedAction{}, err
	}
	return a.Append(ctx, record.Create{EntryType: record.AppEntryType(def), EntryHash: h}, &e)
}

// Update commits payload as a revision of the entry created by original,
// which must be a Create or an Update.
func (a *Agent) Update(ctx context.Context, original address.ActionHash, def record.EntryDef, payload any) (record.SignedAction, error) {
	base, err := a.creation(ctx, original)
	if err != nil {
		return record.SignedAction{}, err
	}
	e, err := record.NewAppEntry(payload)
	if err != nil {
		return record.SignedAction{}, err
	}
	h, err := e.Hash()
	if err != nil {
		return record.SignedAction{}, err
	}
	return a.Append(ctx, record.Update{
		OriginalActionAddress: original,
		OriginalEntryAddress:  base.EntryHash,
		EntryType:             record.AppEntryType(def),
		EntryHash:             h,
	}, &e)
}

// Delete marks the entry created by target as deleted.
func (a *Agent) Delete(ctx context.Context, target address.ActionHash) (record.SignedAction, error) {
	base, err := a.creation(ctx, target)
	if err != nil {
		return record.SignedAction{}, err
	}
	return a.Append(ctx, record.Delete{DeletesAddress: target, DeletesEntryAddress: base.EntryHash}, nil)
}

// CreateLink links dir.Base to dir.Target. Both ends must be defined.
func (a *Agent) CreateLink(ctx context.Context, dir address.LinkDirection, zomeIndex, linkType uint8, tag []byte) (record.SignedAction, error) {
	if err := dir.Validate(); err != nil {
		return record.SignedAction{}, err
	}
	return a.Append(ctx, record.CreateLink{
		BaseAddress:   dir.Base,
		TargetAddress: dir.Target,
		ZomeIndex:     zomeIndex,
		LinkType:      linkType,
		Tag:           tag,
	}, nil)
}

func (a *Agent) DeleteLink(ctx context.Context, linkAdd address.ActionHash) (record.SignedAction, error) {
	rec, err := a.store.FetchValidatedRecord(ctx, linkAdd)
	if err != nil {
		return record.SignedAction{}, err
	}
	link, ok := rec.Action().(record.CreateLink)
	if !ok {
		return record.SignedAction{}, fault.Mismatch(fault.ActionTypeMismatch, record.KindCreateLink, rec.Action().Kind(), "action %s", linkAdd)
	}
	return a.Append(ctx, record.DeleteLink{LinkAddAddress: linkAdd, BaseAddress: link.BaseAddress}, nil)
}

func (a *Agent) OpenChain(ctx context.Context, prevDnaHash []byte) (record.SignedAction, error) {
	return a.Append(ctx, record.OpenChain{PrevDnaHash: prevDnaHash}, nil)
}

func (a *Agent) CloseChain(ctx context.Context, newDnaHash []byte) (record.SignedAction, error) {
	return a.Append(ctx, record.CloseChain{NewDnaHash: newDnaHash}, nil)
}

// Append fills in the header of act, signs it and commits it with entry.
// The higher-level methods check that references point at the right kind of
// action; Append does not.
func (a *Agent) Append(ctx context.Context, act record.Action, entry *record.Entry) (record.SignedAction, error) {
	if err := ctx.Err(); err != nil {
		return record.SignedAction{}, err
	}
	if a.head == nil && act.Kind() != record.KindDna {
		return record.SignedAction{}, ErrNoGenesis
	}
	hdr := record.Header{
		Author:     a.signer.Key(),
		Timestamp:  a.clock().UnixMicro(),
		ActionSeq:  a.seq,
		PrevAction: a.head,
	}
	stamped, err := withHeader(act, hdr)
	if err != nil {
		return record.SignedAction{}, err
	}
	_, envelope, err := record.Sign(stamped, a.signer)
	if err != nil {
		return record.SignedAction{}, err
	}
	signed, err := a.store.Commit(envelope, entry)
	if err != nil {
		return record.SignedAction{}, err
	}
	head := signed.Hash
	a.head = &head
	a.seq++
	return signed, nil
}

func (a *Agent) creation(ctx context.Context, h address.ActionHash) (record.EntryCreation, error) {
	rec, err := a.store.FetchValidatedRecord(ctx, h)
	if err != nil {
		return record.EntryCreation{}, err
	}
	c, ok := record.AsEntryCreation(rec.Action())
	if !ok {
		return record.EntryCreation{}, fault.New(fault.NotACreationAction, "action %s is %s", h, rec.Action().Kind())
	}
	return c, nil
}

func withHeader(act record.Action, h record.Header) (record.Action, error) {
	switch v := act.(type) {
	case record.Dna:
		v.Header = h
		return v, nil
	case record.AgentValidationPkg:
		v.Header = h
		return v, nil
	case record.InitZomesComplete:
		v.Header = h
		return v, nil
	case record.CreateLink:
		v.Header = h
		return v, nil
	case record.DeleteLink:
		v.Header = h
		return v, nil
	case record.OpenChain:
		v.Header = h
		return v, nil
	case record.CloseChain:
		v.Header = h
		return v, nil
	case record.Create:
		v.Header = h
		return v, nil
	case record.Update:
		v.Header = h
		return v, nil
	case record.Delete:
		v.Header = h
		return v, nil
	default:
		return nil, fmt.Errorf("ledger: unsupported action %T", act)
	}
}
