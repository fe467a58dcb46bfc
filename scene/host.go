package scene

import (
	"github.com/oliverbestmann/contact"
)

var _ contact.Liveness[EntityId] = Host{}
var _ contact.Hierarchy[EntityId, EntityId] = Host{}

// Host adapts a Scene to the contact package for owners whose raw handles
// are the entities carrying a collider.
type Host struct {
	Scene *Scene
}

func (h Host) Alive(handle EntityId) bool {
	return h.Scene.Alive(handle)
}

func (h Host) Enabled(handle EntityId) bool {
	return h.Scene.ColliderEnabled(handle)
}

func (h Host) ActiveInHierarchy(handle EntityId) bool {
	return h.Scene.ActiveInHierarchy(handle)
}

func (h Host) HandleGroup(handle EntityId) contact.Mask {
	return h.Scene.Group(handle)
}

func (h Host) NearestTarget(handle EntityId) (EntityId, bool) {
	return h.Scene.NearestTarget(handle)
}

func (h Host) IsWithin(handle EntityId, target EntityId) bool {
	return h.Scene.IsDescendant(handle, target)
}

func (h Host) TargetGroup(target EntityId) contact.Mask {
	return h.Scene.Group(target)
}

func (h Host) TargetAlive(target EntityId) bool {
	return h.Scene.Alive(target)
}

func (h Host) TargetActive(target EntityId) bool {
	return h.Scene.ActiveInHierarchy(target)
}
