package record

import "xdao.co/ledgerkit/address"

// SignedAction is an action together with its address and its author's
// signature over the action's canonical encoding.
type SignedAction struct {
	Hash      address.ActionHash
	Action    Action
	Signature []byte
}

// Record is the unit fetched from the ledger: a signed action and, for
// Create and Update, the entry it references.
type Record struct {
	Signed SignedAction
	Entry  *Entry
}

func (r Record) Hash() address.ActionHash { return r.Signed.Hash }

func (r Record) Action() Action { return r.Signed.Action }
