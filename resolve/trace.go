package resolve

import (
	"context"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/record"
)

// Step is one action of a revision chain.
type Step struct {
	Hash   address.ActionHash
	Action record.Action
}

type label string

func (l label) String() string { return string(l) }

const revisionKinds label = "Create|Update"

// TraceOrigin walks from the action at h back through each Update's
// OriginalActionAddress until it reaches a Create. The result starts with h
// and ends with the Create.
//
// Any other action kind on the way fails with fault.WrongActionKindInChain.
// Revisiting an address fails with fault.CycleDetected, and a chain longer
// than Options.MaxChainDepth with fault.ChainTooLong. On failure no partial
// chain is returned.
func (r *Resolver) TraceOrigin(ctx context.Context, h address.ActionHash) ([]Step, error) {
	var history []Step
	visited := make(map[string]struct{})
	next := &h

	for next != nil {
		addr := *next
		if len(history) >= r.opts.MaxChainDepth {
			return nil, fault.New(fault.ChainTooLong, "revision chain from %s exceeds %d actions", h, r.opts.MaxChainDepth)
		}
		key := string(addr.Bytes())
		if _, seen := visited[key]; seen {
			return nil, fault.New(fault.CycleDetected, "revision chain from %s revisits %s", h, addr)
		}
		visited[key] = struct{}{}

		rec, err := r.Record(ctx, addr)
		if err != nil {
			r.log.Debug("trace failed", "start", h.String(), "at", addr.String(), "depth", len(history), "err", err)
			return nil, err
		}
		act := record.Value(rec.Action())
		switch a := act.(type) {
		case record.Update:
			orig := a.OriginalActionAddress
			next = &orig
		case record.Create:
			next = nil
		case nil:
			return nil, fault.New(fault.WrongActionKindInChain, "no action at %s", addr)
		default:
			return nil, fault.Mismatch(fault.WrongActionKindInChain, revisionKinds, a.Kind(), "wrong action type '%s' at %s", a.Kind(), addr)
		}
		history = append(history, Step{Hash: addr, Action: act})
	}

	r.log.Debug("traced origin", "start", h.String(), "origin", history[len(history)-1].Hash.String(), "length", len(history))
	return history, nil
}

// TraceOriginRoot returns the last step of TraceOrigin, the originating
// Create.
func (r *Resolver) TraceOriginRoot(ctx context.Context, h address.ActionHash) (Step, error) {
	history, err := r.TraceOrigin(ctx, h)
	if err != nil {
		return Step{}, err
	}
	return history[len(history)-1], nil
}
