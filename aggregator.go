package contact

import (
	"iter"
	"maps"

	"github.com/oliverbestmann/contact/internal/assert"
	"github.com/oliverbestmann/contact/internal/set"
	"github.com/oliverbestmann/contact/internal/typedpool"
)

// StayMode controls how often OnStay fires for a target that has multiple
// staying handles.
type StayMode uint8

const (
	// StayPerTarget fires OnStay at most once per target and tick.
	StayPerTarget StayMode = iota

	// StayPerHandle fires OnStay once per contributing handle and tick.
	StayPerHandle
)

// TargetCallbacks is the bundle of target level notifications of one aggregator.
type TargetCallbacks[H comparable, T comparable] struct {
	OnEnter          func(target T)
	OnStay           func(target T)
	OnExit           func(target T)
	OnStayingChanged func(staying TargetStaying[H, T])
}

func (c *TargetCallbacks[H, T]) enter(target T) {
	if c.OnEnter != nil {
		c.OnEnter(target)
	}
}

func (c *TargetCallbacks[H, T]) stay(target T) {
	if c.OnStay != nil {
		c.OnStay(target)
	}
}

func (c *TargetCallbacks[H, T]) exit(target T) {
	if c.OnExit != nil {
		c.OnExit(target)
	}
}

func (c *TargetCallbacks[H, T]) stayingChanged(staying TargetStaying[H, T]) {
	if c.OnStayingChanged != nil {
		c.OnStayingChanged(staying)
	}
}

// Aggregator collapses the handle level stream of a Tracker into a stream per
// logical target. A target enters with its first contributing handle and
// exits when its last contributing handle exits.
type Aggregator[H comparable, T comparable] struct {
	resolver  *Resolver[H, T]
	hierarchy Hierarchy[H, T]
	pool      *ScratchPool
	capacity  int
	mode      StayMode
	callbacks TargetCallbacks[H, T]

	// contributing handles per target. A target is a key if and only
	// if its set is not empty.
	targets map[T]*set.Set[H]

	// the target each handle was accepted for. Handles of a target that was
	// removed by Reconcile stay in here until they exit, so they can rejoin
	// once the target is valid again.
	handles map[H]T

	// targets that received OnStay during the current tick
	stayed set.Set[T]

	handleSets *typedpool.Pool[set.Set[H]]
}

func NewAggregator[H comparable, T comparable](
	resolver *Resolver[H, T],
	pool *ScratchPool,
	callbacks TargetCallbacks[H, T],
	mode StayMode,
	capacity int,
) *Aggregator[H, T] {
	assert.That(resolver != nil, "aggregator needs a resolver")
	assert.That(pool != nil, "aggregator needs a scratch pool")
	assert.Positive(capacity, "scratch capacity")

	return &Aggregator[H, T]{
		resolver:   resolver,
		hierarchy:  resolver.hierarchy,
		pool:       pool,
		capacity:   capacity,
		mode:       mode,
		callbacks:  callbacks,
		targets:    map[T]*set.Set[H]{},
		handles:    map[H]T{},
		handleSets: typedpool.New((*set.Set[H]).Clear),
	}
}

// Callbacks returns the handle level bundle that feeds this aggregator.
// Pass it to the Tracker, possibly combined with others using Fanout.
func (a *Aggregator[H, T]) Callbacks() Callbacks[H] {
	return Callbacks[H]{
		OnEnter: a.enter,
		OnStay:  a.stay,
		OnExit:  a.exit,
	}
}

// Staying returns a read only view of the targets currently in contact.
func (a *Aggregator[H, T]) Staying() TargetStaying[H, T] {
	return TargetStaying[H, T]{aggregator: a}
}

// Reconcile removes every target that died or turned inactive, firing
// OnStayingChanged and OnExit for each. It must run once per tick, after the
// tracker feeding this aggregator was reconciled.
//
// Handles of a removed target may still be staying in the tracker. If the
// target turns valid again while they are, their next Stay enters it again.
func (a *Aggregator[H, T]) Reconcile() Pass {
	defer a.stayed.Clear()

	var pass Pass
	if len(a.targets) == 0 {
		return pass
	}

	gone := AcquireScratch[T](a.pool, a.capacity)
	defer gone.Release()

	for target := range a.targets {
		if a.targetValid(target) {
			continue
		}

		gone.Append(target)
	}

	pass.Dropped = gone.Dropped()
	pass.Exited = a.drain(gone, false)

	return pass
}

// ForceDrainAll removes all targets, firing OnStayingChanged and OnExit for each.
func (a *Aggregator[H, T]) ForceDrainAll() Pass {
	var pass Pass

	for len(a.targets) > 0 {
		members := AcquireScratch[T](a.pool, a.capacity)

		for target := range a.targets {
			if !members.Append(target) {
				break
			}
		}

		pass.Exited += a.drain(members, true)
		members.Release()
	}

	clear(a.handles)
	a.stayed.Clear()

	return pass
}

// Clear forgets all targets without any callbacks.
func (a *Aggregator[H, T]) Clear() {
	for target, handles := range a.targets {
		delete(a.targets, target)
		a.handleSets.Put(handles)
	}

	clear(a.handles)
	a.stayed.Clear()
}

func (a *Aggregator[H, T]) enter(h H) {
	if _, tracked := a.handles[h]; tracked {
		return
	}

	target, ok := a.resolver.Resolve(h)
	if !ok {
		return
	}

	a.handles[h] = target

	if handles, active := a.targets[target]; active {
		handles.Insert(h)
		return
	}

	handles := a.handleSets.Get()
	handles.Insert(h)
	a.targets[target] = handles

	a.callbacks.stayingChanged(a.Staying())
	a.callbacks.enter(target)
}

func (a *Aggregator[H, T]) exit(h H) {
	target, ok := a.handles[h]
	if ok {
		delete(a.handles, h)
	} else {
		target, ok = a.resolver.ResolveTracked(h)
		if !ok {
			return
		}
	}

	handles, active := a.targets[target]
	if !active || !handles.Remove(h) {
		return
	}

	if handles.Len() > 0 {
		return
	}

	a.removeTarget(target, handles, true)
}

func (a *Aggregator[H, T]) stay(h H) {
	target, ok := a.handles[h]
	if !ok {
		return
	}

	handles, active := a.targets[target]
	if !active || !handles.Has(h) {
		a.rejoin(h, target)
		return
	}

	if !a.targetValid(target) {
		return
	}

	if a.mode == StayPerTarget && !a.stayed.Insert(target) {
		return
	}

	a.callbacks.stay(target)
}

// rejoin handles a staying handle whose target was removed by Reconcile.
// Once the target is valid again, the handle is entered like a new contact.
func (a *Aggregator[H, T]) rejoin(h H, target T) {
	if !a.targetValid(target) {
		if !a.hierarchy.TargetAlive(target) {
			delete(a.handles, h)
		}

		return
	}

	delete(a.handles, h)
	a.enter(h)
}

func (a *Aggregator[H, T]) drain(targets *Scratch[T], forget bool) int {
	var exited int

	// a callback resetting the runtime caches empties the buffer
	for idx := 0; idx < targets.Len(); idx++ {
		target := targets.At(idx)

		// might have been removed by a callback in the meantime
		handles, ok := a.targets[target]
		if !ok {
			continue
		}

		a.removeTarget(target, handles, forget)
		exited += 1
	}

	return exited
}

// removeTarget deletes the target key. With forget unset, the handles keep
// their index entries and may rejoin later.
func (a *Aggregator[H, T]) removeTarget(target T, handles *set.Set[H], forget bool) {
	delete(a.targets, target)

	if forget {
		for h := range handles.Values() {
			delete(a.handles, h)
		}
	}

	a.handleSets.Put(handles)

	a.callbacks.stayingChanged(a.Staying())
	a.callbacks.exit(target)
}

func (a *Aggregator[H, T]) targetValid(target T) bool {
	return a.hierarchy.TargetAlive(target) && a.hierarchy.TargetActive(target)
}

// TargetStaying is a read only view of the targets of an aggregator.
type TargetStaying[H comparable, T comparable] struct {
	aggregator *Aggregator[H, T]
}

func (s TargetStaying[H, T]) Len() int {
	if s.aggregator == nil {
		return 0
	}

	return len(s.aggregator.targets)
}

func (s TargetStaying[H, T]) Has(target T) bool {
	if s.aggregator == nil {
		return false
	}

	_, ok := s.aggregator.targets[target]
	return ok
}

func (s TargetStaying[H, T]) Targets() iter.Seq[T] {
	if s.aggregator == nil {
		return func(yield func(T) bool) {}
	}

	return maps.Keys(s.aggregator.targets)
}

// Handles iterates the handles contributing to the target.
func (s TargetStaying[H, T]) Handles(target T) iter.Seq[H] {
	if s.aggregator != nil {
		if handles, ok := s.aggregator.targets[target]; ok {
			return handles.Values()
		}
	}

	return func(yield func(H) bool) {}
}
