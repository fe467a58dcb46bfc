package scene

import (
	"io"
	"log/slog"
	"testing"

	"github.com/oliverbestmann/contact"
	"github.com/stretchr/testify/require"
)

func TestScene_Hierarchy(t *testing.T) {
	s := New()

	root := s.Spawn(Entity{Name: "root", Target: true})
	arm := s.Spawn(Entity{Name: "arm", Parent: root})
	hand := s.Spawn(Entity{Name: "hand", Parent: arm, Group: contact.Group(2)})

	require.Equal(t, 3, s.Len())
	require.Equal(t, []EntityId{arm}, s.Children(root))

	parent, ok := s.Parent(hand)
	require.True(t, ok)
	require.Equal(t, arm, parent)

	require.True(t, s.IsDescendant(hand, root))
	require.True(t, s.IsDescendant(hand, hand))
	require.False(t, s.IsDescendant(root, hand))

	target, ok := s.NearestTarget(hand)
	require.True(t, ok)
	require.Equal(t, root, target)

	// a closer target wins
	s.SetTarget(arm, true)
	target, _ = s.NearestTarget(hand)
	require.Equal(t, arm, target)

	require.Equal(t, contact.Group(2), s.Group(hand))
	require.Equal(t, contact.Group(0), s.Group(arm))
}

func TestScene_ActiveInHierarchy(t *testing.T) {
	s := New()

	root := s.Spawn(Entity{})
	child := s.Spawn(Entity{Parent: root})

	require.True(t, s.ActiveInHierarchy(child))

	s.SetActive(root, false)
	require.False(t, s.ActiveInHierarchy(child))
	require.False(t, s.ActiveInHierarchy(root))

	s.SetActive(root, true)
	s.SetActive(child, false)
	require.True(t, s.ActiveInHierarchy(root))
	require.False(t, s.ActiveInHierarchy(child))
}

func TestScene_Reparent(t *testing.T) {
	s := New()

	a := s.Spawn(Entity{Target: true})
	b := s.Spawn(Entity{Target: true})
	child := s.Spawn(Entity{Parent: a})

	s.SetParent(child, b)
	require.Empty(t, s.Children(a))
	require.Equal(t, []EntityId{child}, s.Children(b))

	target, _ := s.NearestTarget(child)
	require.Equal(t, b, target)

	require.Panics(t, func() { s.SetParent(b, child) })

	s.RemoveParent(child)
	_, ok := s.Parent(child)
	require.False(t, ok)
	require.Empty(t, s.Children(b))
}

func TestScene_DespawnRecursive(t *testing.T) {
	s := New()

	root := s.Spawn(Entity{})
	child := s.Spawn(Entity{Parent: root})
	grandchild := s.Spawn(Entity{Parent: child})
	other := s.Spawn(Entity{})

	s.Despawn(child)

	require.True(t, s.Alive(root))
	require.False(t, s.Alive(child))
	require.False(t, s.Alive(grandchild))
	require.True(t, s.Alive(other))
	require.Empty(t, s.Children(root))

	// despawning twice only warns
	require.NotPanics(t, func() { s.Despawn(child) })
	require.NotPanics(t, func() { s.SetActive(child, false) })
}

func TestScene_ColliderEnabled(t *testing.T) {
	s := New()

	id := s.Spawn(Entity{ColliderDisabled: true})
	require.False(t, s.ColliderEnabled(id))

	s.SetColliderEnabled(id, true)
	require.True(t, s.ColliderEnabled(id))

	s.Despawn(id)
	require.False(t, s.ColliderEnabled(id))
}

func TestHost_OwnerSeesDespawnedChildren(t *testing.T) {
	s := New()
	host := Host{Scene: s}

	enemy := s.Spawn(Entity{Name: "enemy", Target: true})
	head := s.Spawn(Entity{Name: "head", Parent: enemy})
	body := s.Spawn(Entity{Name: "body", Parent: enemy})

	var events []string

	rt := contact.NewRuntime(contact.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	owner := contact.NewOwner(rt, contact.OwnerConfig[EntityId, EntityId]{
		Name:      "zone",
		Liveness:  host,
		Hierarchy: host,
		Proximity: contact.KindConfig[EntityId, EntityId]{
			Targets: contact.TargetCallbacks[EntityId, EntityId]{
				OnEnter: func(target EntityId) { events = append(events, "enter "+s.Name(target)) },
				OnExit:  func(target EntityId) { events = append(events, "exit "+s.Name(target)) },
			},
		},
	})

	owner.RawBegin(contact.Proximity, head)
	owner.RawBegin(contact.Proximity, body)
	owner.Tick()
	require.Equal(t, []string{"enter enemy"}, events)

	// the head is shot off, the physics host never reports the end of its contact
	s.Despawn(head)
	owner.Tick()
	require.Equal(t, []string{"enter enemy"}, events)
	require.False(t, owner.Staying(contact.Proximity).Has(head))

	// the whole enemy is deactivated
	s.SetActive(enemy, false)
	owner.Tick()
	require.Equal(t, []string{"enter enemy", "exit enemy"}, events)
	require.Zero(t, owner.Staying(contact.Proximity).Len())
}
