package cpcontact

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/contact"
	"github.com/oliverbestmann/contact/scene"
	"github.com/stretchr/testify/require"
)

const testCollisionType cp.CollisionType = 7

type fixture struct {
	space  *cp.Space
	scene  *scene.Scene
	bridge *Bridge

	events []string
}

func newFixture() *fixture {
	space := cp.NewSpace()
	s := scene.New()

	rt := contact.NewRuntime(contact.Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &fixture{
		space:  space,
		scene:  s,
		bridge: NewBridge(space, s, rt, testCollisionType),
	}
}

func (f *fixture) targetCallbacks(kind contact.Kind) contact.TargetCallbacks[*cp.Shape, scene.EntityId] {
	return contact.TargetCallbacks[*cp.Shape, scene.EntityId]{
		OnEnter: func(target scene.EntityId) {
			f.events = append(f.events, kind.String()+" enter "+f.scene.Name(target))
		},
		OnExit: func(target scene.EntityId) {
			f.events = append(f.events, kind.String()+" exit "+f.scene.Name(target))
		},
	}
}

func (f *fixture) take() []string {
	events := f.events
	f.events = nil
	return events
}

// addZone adds a static sensor circle at the origin and tracks it.
func (f *fixture) addZone() (*cp.Shape, *Owner) {
	entity := f.scene.Spawn(scene.Entity{Name: "zone"})

	body := f.space.AddBody(cp.NewStaticBody())
	shape := f.space.AddShape(f.bridge.Attach(cp.NewCircle(body, 10, cp.Vector{}), entity))
	shape.SetSensor(true)

	owner := f.bridge.Track(shape, OwnerConfig{
		Proximity: contact.KindConfig[*cp.Shape, scene.EntityId]{Targets: f.targetCallbacks(contact.Proximity)},
		Impact:    contact.KindConfig[*cp.Shape, scene.EntityId]{Targets: f.targetCallbacks(contact.Impact)},
	})

	return shape, owner
}

// addEnemy adds a dynamic body with two circle shapes, each on its own child
// entity below the enemy target.
func (f *fixture) addEnemy(pos cp.Vector) (enemy, head, torso scene.EntityId) {
	enemy = f.scene.Spawn(scene.Entity{Name: "enemy", Target: true})
	head = f.scene.Spawn(scene.Entity{Name: "head", Parent: enemy})
	torso = f.scene.Spawn(scene.Entity{Name: "torso", Parent: enemy})

	body := cp.NewBody(1, cp.MomentForCircle(1, 0, 2, cp.Vector{}))
	body.SetPosition(pos)
	f.space.AddBody(body)

	f.space.AddShape(f.bridge.Attach(cp.NewCircle(body, 1, cp.Vector{Y: 1}), head))
	f.space.AddShape(f.bridge.Attach(cp.NewCircle(body, 1, cp.Vector{Y: -1}), torso))

	return enemy, head, torso
}

func TestBridge_SensorContactsCollapseToTarget(t *testing.T) {
	f := newFixture()

	_, owner := f.addZone()
	f.addEnemy(cp.Vector{})

	f.bridge.Step(1.0 / 60)

	require.Equal(t, []string{"proximity enter enemy"}, f.take())
	require.Equal(t, 2, owner.Staying(contact.Proximity).Len())
	require.Zero(t, owner.Staying(contact.Impact).Len())

	targets, ok := owner.Targets(contact.Proximity)
	require.True(t, ok)
	require.Equal(t, 1, targets.Len())
}

func TestBridge_DisabledColliderExitsWithoutSeparate(t *testing.T) {
	f := newFixture()

	_, owner := f.addZone()
	_, head, torso := f.addEnemy(cp.Vector{})

	f.bridge.Step(1.0 / 60)
	f.take()

	// chipmunk still sees the overlap, only the reconcile pass notices
	f.scene.SetColliderEnabled(head, false)
	f.bridge.Step(1.0 / 60)

	require.Empty(t, f.take())
	require.Equal(t, 1, owner.Staying(contact.Proximity).Len())

	f.scene.SetColliderEnabled(torso, false)
	f.bridge.Step(1.0 / 60)

	require.Equal(t, []string{"proximity exit enemy"}, f.take())
	require.Zero(t, owner.Staying(contact.Proximity).Len())
}

func TestBridge_DeactivatedTargetExits(t *testing.T) {
	f := newFixture()

	f.addZone()
	enemy, _, _ := f.addEnemy(cp.Vector{})

	f.bridge.Step(1.0 / 60)
	f.take()

	f.scene.SetActive(enemy, false)
	f.bridge.Step(1.0 / 60)

	require.Equal(t, []string{"proximity exit enemy"}, f.take())
}

func TestBridge_UntrackDrainsOwner(t *testing.T) {
	f := newFixture()

	zone, owner := f.addZone()
	f.addEnemy(cp.Vector{})

	f.bridge.Step(1.0 / 60)
	f.take()

	f.bridge.Untrack(zone)
	require.Equal(t, []string{"proximity exit enemy"}, f.take())
	require.True(t, owner.Destroyed())

	_, ok := f.bridge.Owner(zone)
	require.False(t, ok)

	// separate callbacks for the removed shape are ignored
	require.NotPanics(t, func() {
		f.space.RemoveShape(zone)
		f.bridge.Step(1.0 / 60)
	})

	require.Empty(t, f.take())
}

func TestBridge_SolidContactIsImpact(t *testing.T) {
	f := newFixture()

	ballEntity := f.scene.Spawn(scene.Entity{Name: "ball"})
	ball := cp.NewBody(1, cp.MomentForCircle(1, 0, 1, cp.Vector{}))
	f.space.AddBody(ball)
	ballShape := f.space.AddShape(f.bridge.Attach(cp.NewCircle(ball, 1, cp.Vector{}), ballEntity))

	var impacts []scene.EntityId
	owner := f.bridge.Track(ballShape, OwnerConfig{
		Impact: contact.KindConfig[*cp.Shape, scene.EntityId]{
			Targets: contact.TargetCallbacks[*cp.Shape, scene.EntityId]{
				OnEnter: func(target scene.EntityId) { impacts = append(impacts, target) },
			},
		},
	})

	wall := f.scene.Spawn(scene.Entity{Name: "wall", Target: true})
	wallBody := f.space.AddBody(cp.NewStaticBody())
	f.space.AddShape(f.bridge.Attach(cp.NewCircle(wallBody, 1, cp.Vector{X: 0.5}), wall))

	f.bridge.Step(1.0 / 60)

	require.Equal(t, []scene.EntityId{wall}, impacts)
	require.Zero(t, owner.Staying(contact.Proximity).Len())
	require.Equal(t, "ball", owner.Name())
}

func TestBridge_UnattachedShapeHasNoTarget(t *testing.T) {
	f := newFixture()

	shape := cp.NewCircle(cp.NewStaticBody(), 1, cp.Vector{})

	require.False(t, f.bridge.Alive(shape))

	_, ok := f.bridge.NearestTarget(shape)
	require.False(t, ok)
	require.False(t, f.bridge.IsWithin(shape, 1))
}

func TestBridge_CloseAfterReset(t *testing.T) {
	f := newFixture()

	f.addZone()
	f.addEnemy(cp.Vector{})

	f.bridge.Step(1.0 / 60)
	f.take()

	// a fresh session: caches are reset first, so closing emits nothing
	f.bridge.runtime.ResetRuntimeCaches()
	f.bridge.Close()

	require.Empty(t, f.take())
	require.Zero(t, f.bridge.runtime.Owners())
}
