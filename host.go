package contact

// Liveness answers whether a raw handle still takes part in contacts. It is
// implemented by the physics host.
//
// Alive is always asked first. Enabled and ActiveInHierarchy are only asked
// for handles that are alive.
type Liveness[H comparable] interface {
	// Alive reports whether the handle still refers to an existing collider.
	Alive(h H) bool

	// Enabled reports whether the collider itself is enabled.
	Enabled(h H) bool

	// ActiveInHierarchy reports whether the entity owning the collider and
	// all of its ancestors are active.
	ActiveInHierarchy(h H) bool
}

// Hierarchy maps raw handles to logical targets.
type Hierarchy[H comparable, T comparable] interface {
	// HandleGroup returns the group of the entity owning the handle.
	HandleGroup(h H) Mask

	// NearestTarget walks from the entity owning the handle up through its
	// ancestors and returns the first one exposing the target capability.
	NearestTarget(h H) (T, bool)

	// IsWithin reports whether the entity owning the handle is the target
	// itself or one of its descendants.
	IsWithin(h H, target T) bool

	TargetGroup(target T) Mask
	TargetAlive(target T) bool
	TargetActive(target T) bool
}
