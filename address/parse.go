package address

import (
	"xdao.co/ledgerkit/cidutil"
	"xdao.co/ledgerkit/fault"
)

// decoder accepts the text form of exactly one address kind.
type decoder struct {
	kind Kind
}

func (d decoder) decode(s string) (ContentHash, error) {
	id, err := cidutil.FromText(s, d.kind.codec())
	if err != nil {
		return ContentHash{}, err
	}
	return ContentHash{id: id}, nil
}

var (
	linkableDecoders = []decoder{{KindAction}, {KindEntry}, {KindExternal}}
	dhtDecoders      = []decoder{{KindAction}, {KindEntry}}
)

// Parse determines the kind of a text address by trying every known
// encoding. Exactly one encoding must accept s.
func Parse(s string) (ContentHash, error) {
	return parseWith(s, linkableDecoders)
}

// ParseDHT is like Parse but only accepts action and entry addresses, the
// two kinds that name objects held by the ledger itself.
func ParseDHT(s string) (ContentHash, error) {
	return parseWith(s, dhtDecoders)
}

func parseWith(s string, decoders []decoder) (ContentHash, error) {
	var (
		found   ContentHash
		matches int
	)
	for _, d := range decoders {
		h, err := d.decode(s)
		if err != nil {
			continue
		}
		found = h
		matches++
	}
	switch matches {
	case 0:
		return ContentHash{}, fault.New(fault.InvalidHashString, "%q is not a recognised address", s)
	case 1:
		return found, nil
	default:
		// The address encodings are mutually exclusive; reaching this means the
		// decoder table itself is broken.
		return ContentHash{}, fault.New(fault.AmbiguousHash, "%q matched %d address kinds", s, matches)
	}
}

// ParseAction parses s as an action address.
func ParseAction(s string) (ActionHash, error) {
	h, err := Parse(s)
	if err != nil {
		return ActionHash{}, err
	}
	return NarrowToAction(h)
}

// ParseEntry parses s as an entry address.
func ParseEntry(s string) (EntryHash, error) {
	h, err := Parse(s)
	if err != nil {
		return EntryHash{}, err
	}
	return NarrowToEntry(h)
}

// ParseExternal parses s as an external reference.
func ParseExternal(s string) (ExternalHash, error) {
	h, err := Parse(s)
	if err != nil {
		return ExternalHash{}, err
	}
	return NarrowToExternal(h)
}

// NarrowToAction returns h as an ActionHash, or HashKindMismatch.
func NarrowToAction(h ContentHash) (ActionHash, error) {
	if err := expectKind(h, KindAction); err != nil {
		return ActionHash{}, err
	}
	return ActionHash{h}, nil
}

// NarrowToEntry returns h as an EntryHash, or HashKindMismatch.
func NarrowToEntry(h ContentHash) (EntryHash, error) {
	if err := expectKind(h, KindEntry); err != nil {
		return EntryHash{}, err
	}
	return EntryHash{h}, nil
}

// NarrowToExternal returns h as an ExternalHash, or HashKindMismatch.
func NarrowToExternal(h ContentHash) (ExternalHash, error) {
	if err := expectKind(h, KindExternal); err != nil {
		return ExternalHash{}, err
	}
	return ExternalHash{h}, nil
}

func expectKind(h ContentHash, want Kind) error {
	if got := h.Kind(); got != want {
		return fault.Mismatch(fault.HashKindMismatch, want, got, "address %s must be an %s hash", h, want)
	}
	return nil
}

func invalidHash(s string, cause error) error {
	if cause == nil {
		return fault.New(fault.InvalidHashString, "%q is not a ledger address", s)
	}
	return fault.Wrap(fault.InvalidHashString, cause, "%q is not a ledger address", s)
}
