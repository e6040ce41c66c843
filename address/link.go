package address

import "xdao.co/ledgerkit/fault"

// LinkDirection names the two ends of a link, ignoring its type and tag.
// Either end may be any linkable hash.
type LinkDirection struct {
	Base   ContentHash `json:"base"`
	Target ContentHash `json:"target"`
}

// Reverse swaps base and target.
func (d LinkDirection) Reverse() LinkDirection {
	return LinkDirection{Base: d.Target, Target: d.Base}
}

// Validate fails with fault.InvalidHashString when either end is undefined.
func (d LinkDirection) Validate() error {
	if !d.Base.Defined() {
		return fault.New(fault.InvalidHashString, "link direction has no base")
	}
	if !d.Target.Defined() {
		return fault.New(fault.InvalidHashString, "link direction has no target")
	}
	return nil
}
