package cpcontact

import (
	"log/slog"
	"slices"

	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/contact"
	"github.com/oliverbestmann/contact/scene"
)

// Owner is a contact owner whose raw handles are chipmunk shapes and whose
// logical targets are scene entities.
type Owner = contact.Owner[*cp.Shape, scene.EntityId]

// OwnerConfig configures an owner created with Bridge.Track. Liveness and
// Hierarchy are provided by the bridge if left empty.
type OwnerConfig = contact.OwnerConfig[*cp.Shape, scene.EntityId]

var _ contact.Liveness[*cp.Shape] = (*Bridge)(nil)
var _ contact.Hierarchy[*cp.Shape, scene.EntityId] = (*Bridge)(nil)

// Bridge connects a chipmunk space to the contact runtime. It installs a
// wildcard collision handler for its collision type and forwards the begin
// and separate callbacks of tracked shapes as raw events. Contacts with a
// sensor are reported as contact.Proximity, all others as contact.Impact.
//
// Chipmunk reports a separation when a shape is removed from the space, but
// not when the entity owning the shape is deactivated or its collider is
// disabled. Those are caught by the reconcile pass that runs after every step.
type Bridge struct {
	space   *cp.Space
	scene   *scene.Scene
	host    scene.Host
	runtime *contact.Runtime

	collisionType cp.CollisionType

	owners map[*cp.Shape]*Owner

	// tracked shapes in the order they were tracked
	order   []*cp.Shape
	ticking []*cp.Shape
}

func NewBridge(space *cp.Space, s *scene.Scene, rt *contact.Runtime, collisionType cp.CollisionType) *Bridge {
	bridge := &Bridge{
		space:         space,
		scene:         s,
		host:          scene.Host{Scene: s},
		runtime:       rt,
		collisionType: collisionType,
		owners:        map[*cp.Shape]*Owner{},
	}

	handler := space.NewWildcardCollisionHandler(collisionType)
	handler.BeginFunc = bridge.begin
	handler.SeparateFunc = bridge.separate

	return bridge
}

// Attach links a shape to the scene entity it belongs to and enables contact
// reporting for it.
func (b *Bridge) Attach(shape *cp.Shape, entity scene.EntityId) *cp.Shape {
	shape.UserData = entity
	shape.SetCollisionType(b.collisionType)
	return shape
}

// Track creates an owner for the given shape. The shape must be attached.
func (b *Bridge) Track(shape *cp.Shape, config OwnerConfig) *Owner {
	if _, exists := b.owners[shape]; exists {
		panic("shape is already tracked")
	}

	if config.Liveness == nil {
		config.Liveness = b
	}

	if config.Hierarchy == nil {
		config.Hierarchy = b
	}

	if config.Name == "" {
		if entity, ok := entityOf(shape); ok {
			config.Name = b.scene.Name(entity)
		}
	}

	owner := contact.NewOwner(b.runtime, config)

	b.owners[shape] = owner
	b.order = append(b.order, shape)

	b.runtime.Logger().Debug("Tracking shape", slog.String("owner", config.Name))

	return owner
}

// Untrack destroys the owner of the shape, firing its exit events. Call it
// before removing the shape from the space.
func (b *Bridge) Untrack(shape *cp.Shape) {
	owner, ok := b.owners[shape]
	if !ok {
		return
	}

	delete(b.owners, shape)

	if idx := slices.Index(b.order, shape); idx >= 0 {
		b.order = slices.Delete(b.order, idx, idx+1)
	}

	owner.Destroy()
}

// Close untracks every shape.
func (b *Bridge) Close() {
	for len(b.order) > 0 {
		b.Untrack(b.order[len(b.order)-1])
	}
}

// Owner returns the owner tracking the given shape.
func (b *Bridge) Owner(shape *cp.Shape) (*Owner, bool) {
	owner, ok := b.owners[shape]
	return owner, ok
}

// Step advances the space and then runs the reconcile pass of every enabled owner.
func (b *Bridge) Step(dt float64) {
	b.space.Step(dt)

	// owners might be untracked from within a callback
	b.ticking = append(b.ticking[:0], b.order...)

	for _, shape := range b.ticking {
		owner, ok := b.owners[shape]
		if ok && owner.Enabled() {
			owner.Tick()
		}
	}

	clear(b.ticking)
}

func (b *Bridge) begin(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	shape, other := arb.Shapes()

	if owner, ok := b.owners[shape]; ok && owner.Enabled() {
		owner.RawBegin(kindOf(shape, other), other)
	}

	return true
}

func (b *Bridge) separate(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
	shape, other := arb.Shapes()

	if owner, ok := b.owners[shape]; ok && owner.Enabled() {
		owner.RawEnd(kindOf(shape, other), other)
	}
}

func (b *Bridge) Alive(shape *cp.Shape) bool {
	entity, ok := entityOf(shape)
	return ok && b.space.ContainsShape(shape) && b.scene.Alive(entity)
}

func (b *Bridge) Enabled(shape *cp.Shape) bool {
	entity, _ := entityOf(shape)
	return b.scene.ColliderEnabled(entity)
}

func (b *Bridge) ActiveInHierarchy(shape *cp.Shape) bool {
	entity, _ := entityOf(shape)
	return b.scene.ActiveInHierarchy(entity)
}

func (b *Bridge) HandleGroup(shape *cp.Shape) contact.Mask {
	entity, _ := entityOf(shape)
	return b.scene.Group(entity)
}

func (b *Bridge) NearestTarget(shape *cp.Shape) (scene.EntityId, bool) {
	entity, ok := entityOf(shape)
	if !ok {
		return 0, false
	}

	return b.scene.NearestTarget(entity)
}

func (b *Bridge) IsWithin(shape *cp.Shape, target scene.EntityId) bool {
	entity, ok := entityOf(shape)
	return ok && b.scene.IsDescendant(entity, target)
}

func (b *Bridge) TargetGroup(target scene.EntityId) contact.Mask {
	return b.host.TargetGroup(target)
}

func (b *Bridge) TargetAlive(target scene.EntityId) bool {
	return b.host.TargetAlive(target)
}

func (b *Bridge) TargetActive(target scene.EntityId) bool {
	return b.host.TargetActive(target)
}

func kindOf(shape, other *cp.Shape) contact.Kind {
	if shape.Sensor() || other.Sensor() {
		return contact.Proximity
	}

	return contact.Impact
}

func entityOf(shape *cp.Shape) (scene.EntityId, bool) {
	entity, ok := shape.UserData.(scene.EntityId)
	return entity, ok
}
