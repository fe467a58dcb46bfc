package contact

import (
	"github.com/oliverbestmann/contact/internal/assert"
)

// Resolver maps raw handles to logical targets and caches the result.
//
// Cache entries are validated lazily on lookup and removed one by one once
// they turn stale. A cached entry is valid as long as its target is alive,
// the target's group is within the mask and the handle is still owned by
// the target or one of its descendants.
type Resolver[H comparable, T comparable] struct {
	hierarchy Hierarchy[H, T]
	mask      Mask
	cache     map[H]T
}

func NewResolver[H comparable, T comparable](hierarchy Hierarchy[H, T], mask Mask) *Resolver[H, T] {
	assert.That(hierarchy != nil, "resolver needs a hierarchy")

	return &Resolver[H, T]{
		hierarchy: hierarchy,
		mask:      mask,
		cache:     map[H]T{},
	}
}

func (r *Resolver[H, T]) Mask() Mask {
	return r.mask
}

// Resolve returns the target for a handle that is about to start a contact.
// Handles whose group is outside the mask resolve to no target. That outcome
// is not cached, the group might change before the next contact.
func (r *Resolver[H, T]) Resolve(h H) (T, bool) {
	return r.resolve(h, true)
}

// ResolveTracked returns the target for a handle that already takes part in
// an active contact. The group mask is not applied again, so a contact can
// always produce its exit, even if the group of the entity changed since.
func (r *Resolver[H, T]) ResolveTracked(h H) (T, bool) {
	return r.resolve(h, false)
}

// Invalidate drops the cache entry for the handle, if any.
func (r *Resolver[H, T]) Invalidate(h H) {
	delete(r.cache, h)
}

// Reset drops all cache entries.
func (r *Resolver[H, T]) Reset() {
	clear(r.cache)
}

// Len returns the number of cache entries, including stale ones that were
// not looked up since they turned stale.
func (r *Resolver[H, T]) Len() int {
	return len(r.cache)
}

func (r *Resolver[H, T]) resolve(h H, filter bool) (T, bool) {
	if target, ok := r.cache[h]; ok {
		if r.stillValid(h, target, filter) {
			return target, true
		}

		delete(r.cache, h)
	}

	if filter && !r.mask.Contains(r.hierarchy.HandleGroup(h)) {
		var tNil T
		return tNil, false
	}

	target, ok := r.hierarchy.NearestTarget(h)
	if !ok {
		return target, false
	}

	r.cache[h] = target
	return target, true
}

func (r *Resolver[H, T]) stillValid(h H, target T, filter bool) bool {
	if !r.hierarchy.TargetAlive(target) {
		return false
	}

	if filter && !r.mask.Contains(r.hierarchy.TargetGroup(target)) {
		return false
	}

	return r.hierarchy.IsWithin(h, target)
}
