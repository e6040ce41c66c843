package record

import "fmt"

// ActionKind is the closed set of action variants.
type ActionKind uint8

const (
	KindDna ActionKind = iota + 1
	KindAgentValidationPkg
	KindInitZomesComplete
	KindCreateLink
	KindDeleteLink
	KindOpenChain
	KindCloseChain
	KindCreate
	KindUpdate
	KindDelete
)

var kindNames = map[ActionKind]string{
	KindDna:                "Dna",
	KindAgentValidationPkg: "AgentValidationPkg",
	KindInitZomesComplete:  "InitZomesComplete",
	KindCreateLink:         "CreateLink",
	KindDeleteLink:         "DeleteLink",
	KindOpenChain:          "OpenChain",
	KindCloseChain:         "CloseChain",
	KindCreate:             "Create",
	KindUpdate:             "Update",
	KindDelete:             "Delete",
}

// Kinds returns every action kind in declaration order.
func Kinds() []ActionKind {
	out := make([]ActionKind, 0, len(kindNames))
	for k := KindDna; k <= KindDelete; k++ {
		out = append(out, k)
	}
	return out
}

func (k ActionKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

func (k ActionKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseActionKind maps a kind name (as printed by String) back to its value.
func ParseActionKind(s string) (ActionKind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("record: unknown action kind %q", s)
}

// EntryKind distinguishes application entries from system entries.
type EntryKind uint8

const (
	EntryKindApp EntryKind = iota + 1
	EntryKindAgentPubKey
	EntryKindCapClaim
	EntryKindCapGrant
)

func (k EntryKind) String() string {
	switch k {
	case EntryKindApp:
		return "App"
	case EntryKindAgentPubKey:
		return "AgentPubKey"
	case EntryKindCapClaim:
		return "CapClaim"
	case EntryKindCapGrant:
		return "CapGrant"
	default:
		return fmt.Sprintf("EntryKind(%d)", uint8(k))
	}
}
