package contact

import "fmt"

// Kind selects one of the two independently tracked contact streams of an owner.
type Kind uint8

const (
	// Proximity contacts come from sensor (trigger) shapes. They report overlap only.
	Proximity Kind = iota
	// Impact contacts come from solid shapes that collide.
	Impact

	kindCount
)

// Kinds lists every contact kind in a stable order.
var Kinds = [kindCount]Kind{Proximity, Impact}

func (k Kind) String() string {
	switch k {
	case Proximity:
		return "proximity"
	case Impact:
		return "impact"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) valid() bool {
	return k < kindCount
}

// Mask is a bitmask of groups. An entity belongs to one or more groups, an
// owner accepts first contacts only from entities whose group intersects its mask.
type Mask uint32

const AllGroups Mask = ^Mask(0)

// Group returns the mask with only the bit for group index set.
func Group(index uint) Mask {
	return 1 << index
}

func (m Mask) Contains(group Mask) bool {
	return m&group != 0
}
