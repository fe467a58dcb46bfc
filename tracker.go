package contact

import (
	"github.com/oliverbestmann/contact/internal/assert"
	"github.com/oliverbestmann/contact/internal/set"
)

type trackerState uint8

const (
	trackerUninitialized trackerState = iota
	trackerActive
	trackerDraining
	trackerDrained
)

func (s trackerState) String() string {
	switch s {
	case trackerActive:
		return "active"
	case trackerDraining:
		return "draining"
	case trackerDrained:
		return "drained"
	default:
		return "uninitialized"
	}
}

// Tracker keeps the staying set of one owner for one contact kind and
// guarantees that every Enter is eventually followed by exactly one Exit,
// even if the physics host never reports the end of the contact.
//
// Raw begin and end events are idempotent. Once per physics step, after all
// raw events of that step were delivered, Reconcile re-validates the staying
// set and synthesizes the Exit events the host did not deliver.
type Tracker[H comparable] struct {
	kind     Kind
	state    trackerState
	capacity int

	liveness  Liveness[H]
	pool      *ScratchPool
	callbacks Callbacks[H]

	staying set.Set[H]
}

// NewTracker creates an active tracker. capacity is the size of the scratch
// buffer used to collect invalid handles during Reconcile. Handles beyond
// that capacity are collected on a later pass.
func NewTracker[H comparable](kind Kind, liveness Liveness[H], pool *ScratchPool, callbacks Callbacks[H], capacity int) *Tracker[H] {
	assert.That(kind.valid(), "invalid contact kind %s", kind)
	assert.That(liveness != nil, "tracker needs a liveness strategy")
	assert.That(pool != nil, "tracker needs a scratch pool")
	assert.Positive(capacity, "scratch capacity")

	return &Tracker[H]{
		kind:      kind,
		state:     trackerActive,
		capacity:  capacity,
		liveness:  liveness,
		pool:      pool,
		callbacks: callbacks,
	}
}

func (t *Tracker[H]) Kind() Kind {
	return t.kind
}

// Staying returns a read only view of the current staying set.
func (t *Tracker[H]) Staying() Staying[H] {
	return Staying[H]{set: &t.staying}
}

// RawBegin records the start of a contact. Begin for a handle that is already
// staying is ignored.
func (t *Tracker[H]) RawBegin(h H) {
	t.require(t.state == trackerActive, "RawBegin")

	if !t.staying.Insert(h) {
		return
	}

	t.callbacks.stayingChanged(t.Staying())
	t.callbacks.enter(h)
}

// RawEnd records the end of a contact. End for a handle that is not staying
// is ignored.
func (t *Tracker[H]) RawEnd(h H) {
	t.require(t.state == trackerActive || t.state == trackerDraining, "RawEnd")
	t.exit(h)
}

// Reconcile fires OnStay for every valid staying handle and then removes the
// invalid ones, one at a time, each with OnStayingChanged followed by OnExit.
func (t *Tracker[H]) Reconcile() Pass {
	t.require(t.state == trackerActive, "Reconcile")

	var pass Pass
	if t.staying.Len() == 0 {
		return pass
	}

	invalid := AcquireScratch[H](t.pool, t.capacity)
	defer invalid.Release()

	for h := range t.staying.Values() {
		if t.isValid(h) {
			pass.Stayed += 1
			t.callbacks.stay(h)
			continue
		}

		invalid.Append(h)
	}

	pass.Dropped = invalid.Dropped()
	pass.Exited = t.drain(invalid)

	return pass
}

// ForceDrainAll removes every staying handle without checking its liveness,
// firing OnStayingChanged and OnExit for each of them. The tracker is drained
// afterwards and rejects further events until Activate is called.
//
// Calling ForceDrainAll on a drained tracker does nothing.
func (t *Tracker[H]) ForceDrainAll() Pass {
	t.require(t.state != trackerUninitialized, "ForceDrainAll")

	if t.state != trackerActive {
		return Pass{}
	}

	t.state = trackerDraining
	defer func() { t.state = trackerDrained }()

	var pass Pass
	for t.staying.Len() > 0 {
		members := AcquireScratch[H](t.pool, t.capacity)

		for h := range t.staying.Values() {
			if !members.Append(h) {
				break
			}
		}

		pass.Exited += t.drain(members)
		members.Release()
	}

	return pass
}

// Activate re-arms a drained tracker, for example when its owner is enabled again.
func (t *Tracker[H]) Activate() {
	t.require(t.state == trackerActive || t.state == trackerDrained, "Activate")
	t.state = trackerActive
}

// Active reports whether the tracker accepts raw events.
func (t *Tracker[H]) Active() bool {
	return t.state == trackerActive
}

// Clear empties the staying set without any callbacks. It is only used when
// the runtime caches are reset between simulation sessions.
func (t *Tracker[H]) Clear() {
	t.staying.Clear()
}

func (t *Tracker[H]) drain(handles *Scratch[H]) int {
	var exited int

	// a callback resetting the runtime caches empties the buffer
	for idx := 0; idx < handles.Len(); idx++ {
		if t.exit(handles.At(idx)) {
			exited += 1
		}
	}

	return exited
}

func (t *Tracker[H]) exit(h H) bool {
	// a callback might have removed the handle already
	if !t.staying.Remove(h) {
		return false
	}

	t.callbacks.stayingChanged(t.Staying())
	t.callbacks.exit(h)

	return true
}

func (t *Tracker[H]) isValid(h H) bool {
	return t.liveness.Alive(h) &&
		t.liveness.Enabled(h) &&
		t.liveness.ActiveInHierarchy(h)
}

func (t *Tracker[H]) require(cond bool, op string) {
	if !cond {
		assert.Fail("%s on %s tracker in state %s", op, t.kind, t.state)
	}
}
