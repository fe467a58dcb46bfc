package scene

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/oliverbestmann/contact"
)

// EntityId identifies an entity in a Scene. The zero value is never a valid entity.
type EntityId uint32

func (e EntityId) String() string {
	return strconv.Itoa(int(e))
}

func (e EntityId) LogValue() slog.Value {
	return slog.StringValue(e.String())
}

// Entity describes an entity to spawn.
type Entity struct {
	Name string

	// Parent of the new entity, zero for a root entity.
	Parent EntityId

	// Group of the entity. Defaults to contact.Group(0).
	Group contact.Mask

	// Inactive entities and all their descendants are not active in hierarchy.
	Inactive bool

	// Target marks the entity as a logical contact target.
	Target bool

	// ColliderDisabled disables the collider attached to this entity.
	ColliderDisabled bool
}

type node struct {
	name     string
	parent   EntityId
	children []EntityId

	group            contact.Mask
	active           bool
	target           bool
	colliderDisabled bool
}

// Scene is a minimal entity hierarchy. It answers the questions the contact
// package asks about entities: are they alive and active, which group are they
// in and which ancestor is their logical target.
type Scene struct {
	nodes  map[EntityId]*node
	lastId EntityId
}

func New() *Scene {
	return &Scene{nodes: map[EntityId]*node{}}
}

// Spawn creates a new entity and returns its id.
func (s *Scene) Spawn(entity Entity) EntityId {
	s.lastId += 1
	id := s.lastId

	group := entity.Group
	if group == 0 {
		group = contact.Group(0)
	}

	s.nodes[id] = &node{
		name:             entity.Name,
		group:            group,
		active:           !entity.Inactive,
		target:           entity.Target,
		colliderDisabled: entity.ColliderDisabled,
	}

	if entity.Parent != 0 {
		s.SetParent(id, entity.Parent)
	}

	return id
}

// Despawn recursively despawns the given entity following its children.
func (s *Scene) Despawn(id EntityId) {
	root, ok := s.nodes[id]
	if !ok {
		slog.Warn("Cannot despawn entity, does not exist", slog.Any("entityId", id))
		return
	}

	if parent, ok := s.nodes[root.parent]; ok {
		parent.removeChild(id)
	}

	queue := []EntityId{id}

	for idx := 0; idx < len(queue); idx++ {
		node := s.nodes[queue[idx]]
		queue = append(queue, node.children...)
	}

	for _, id := range queue {
		delete(s.nodes, id)
	}
}

// SetParent moves child below parent. It panics if that would create a cycle.
func (s *Scene) SetParent(child, parent EntityId) {
	childNode := s.mustGet(child)
	parentNode := s.mustGet(parent)

	if s.IsDescendant(parent, child) {
		panic(fmt.Sprintf("cannot parent entity %s to its own descendant %s", child, parent))
	}

	if previous, ok := s.nodes[childNode.parent]; ok {
		previous.removeChild(child)
	}

	childNode.parent = parent
	parentNode.children = append(parentNode.children, child)
}

// RemoveParent makes the entity a root entity.
func (s *Scene) RemoveParent(child EntityId) {
	childNode := s.mustGet(child)

	if previous, ok := s.nodes[childNode.parent]; ok {
		previous.removeChild(child)
	}

	childNode.parent = 0
}

func (s *Scene) Parent(id EntityId) (EntityId, bool) {
	node, ok := s.nodes[id]
	if !ok || node.parent == 0 {
		return 0, false
	}

	return node.parent, true
}

// Children returns the children of the entity. You must not modify the returned slice.
func (s *Scene) Children(id EntityId) []EntityId {
	if node, ok := s.nodes[id]; ok {
		return node.children
	}

	return nil
}

func (s *Scene) SetActive(id EntityId, active bool) {
	if node, ok := s.get(id, "SetActive"); ok {
		node.active = active
	}
}

func (s *Scene) SetGroup(id EntityId, group contact.Mask) {
	if node, ok := s.get(id, "SetGroup"); ok {
		node.group = group
	}
}

func (s *Scene) SetTarget(id EntityId, target bool) {
	if node, ok := s.get(id, "SetTarget"); ok {
		node.target = target
	}
}

func (s *Scene) SetColliderEnabled(id EntityId, enabled bool) {
	if node, ok := s.get(id, "SetColliderEnabled"); ok {
		node.colliderDisabled = !enabled
	}
}

func (s *Scene) Alive(id EntityId) bool {
	_, ok := s.nodes[id]
	return ok
}

func (s *Scene) Name(id EntityId) string {
	if node, ok := s.nodes[id]; ok {
		return node.name
	}

	return ""
}

func (s *Scene) Group(id EntityId) contact.Mask {
	if node, ok := s.nodes[id]; ok {
		return node.group
	}

	return 0
}

func (s *Scene) ColliderEnabled(id EntityId) bool {
	node, ok := s.nodes[id]
	return ok && !node.colliderDisabled
}

// ActiveInHierarchy reports whether the entity and all of its ancestors are active.
func (s *Scene) ActiveInHierarchy(id EntityId) bool {
	for id != 0 {
		node, ok := s.nodes[id]
		if !ok || !node.active {
			return false
		}

		id = node.parent
	}

	return true
}

// NearestTarget returns the entity itself if it is a target, otherwise its
// closest ancestor that is a target.
func (s *Scene) NearestTarget(id EntityId) (EntityId, bool) {
	for id != 0 {
		node, ok := s.nodes[id]
		if !ok {
			break
		}

		if node.target {
			return id, true
		}

		id = node.parent
	}

	return 0, false
}

// IsDescendant reports whether id is ancestor itself or one of its descendants.
func (s *Scene) IsDescendant(id, ancestor EntityId) bool {
	for id != 0 {
		if id == ancestor {
			return true
		}

		node, ok := s.nodes[id]
		if !ok {
			return false
		}

		id = node.parent
	}

	return false
}

// Len returns the number of entities.
func (s *Scene) Len() int {
	return len(s.nodes)
}

func (s *Scene) get(id EntityId, op string) (*node, bool) {
	node, ok := s.nodes[id]
	if !ok {
		slog.Warn("Entity does not exist", slog.String("op", op), slog.Any("entityId", id))
	}

	return node, ok
}

func (s *Scene) mustGet(id EntityId) *node {
	node, ok := s.nodes[id]
	if !ok {
		panic(fmt.Sprintf("entity %s does not exist", id))
	}

	return node
}

func (n *node) removeChild(id EntityId) {
	idx := slices.Index(n.children, id)
	if idx >= 0 {
		n.children = slices.Delete(n.children, idx, idx+1)
	}
}
