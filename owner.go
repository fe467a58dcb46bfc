package contact

import (
	"log/slog"
	"time"

	"github.com/oliverbestmann/contact/internal/assert"
)

// KindConfig configures the callbacks of one contact kind of an owner.
type KindConfig[H comparable, T comparable] struct {
	Handles Callbacks[H]
	Targets TargetCallbacks[H, T]
}

// OwnerConfig describes a new owner.
type OwnerConfig[H comparable, T comparable] struct {
	// Name is used for logging only.
	Name string

	Liveness Liveness[H]

	// Hierarchy enables target aggregation. Leave it nil to only track
	// handles.
	Hierarchy Hierarchy[H, T]

	// GroupMask overwrites the runtime's default group mask if not zero.
	GroupMask Mask

	// StayMode overwrites the runtime's default stay mode if set.
	StayMode *StayMode

	Proximity KindConfig[H, T]
	Impact    KindConfig[H, T]
}

type ownerKind[H comparable, T comparable] struct {
	tracker    *Tracker[H]
	resolver   *Resolver[H, T]
	aggregator *Aggregator[H, T]
}

// Owner is one participant that wants reliable contact notifications. It
// tracks both kinds of contact completely independently.
type Owner[H comparable, T comparable] struct {
	runtime *Runtime
	name    string

	kinds [kindCount]ownerKind[H, T]

	enabled   bool
	destroyed bool

	stats Stats
}

// NewOwner creates an enabled owner and registers it with the runtime.
func NewOwner[H comparable, T comparable](rt *Runtime, config OwnerConfig[H, T]) *Owner[H, T] {
	assert.That(rt != nil, "owner needs a runtime")

	mask := rt.config.GroupMask
	if config.GroupMask != 0 {
		mask = config.GroupMask
	}

	stayMode := rt.config.StayMode
	if config.StayMode != nil {
		stayMode = *config.StayMode
	}

	owner := &Owner[H, T]{
		runtime: rt,
		name:    config.Name,
		enabled: true,
	}

	for _, kind := range Kinds {
		kindConfig := config.Proximity
		if kind == Impact {
			kindConfig = config.Impact
		}

		var state ownerKind[H, T]

		callbacks := kindConfig.Handles

		if config.Hierarchy != nil {
			state.resolver = NewResolver(config.Hierarchy, mask)

			state.aggregator = NewAggregator(
				state.resolver,
				rt.pool,
				kindConfig.Targets,
				stayMode,
				rt.config.ScratchCapacity,
			)

			// the aggregator sees every event before the user callbacks
			callbacks = Fanout(state.aggregator.Callbacks(), kindConfig.Handles)
		}

		state.tracker = NewTracker(kind, config.Liveness, rt.pool, callbacks, rt.config.ScratchCapacity)

		owner.kinds[kind] = state
	}

	rt.register(owner)

	return owner
}

func (o *Owner[H, T]) Name() string {
	return o.name
}

func (o *Owner[H, T]) Enabled() bool {
	return o.enabled
}

func (o *Owner[H, T]) Destroyed() bool {
	return o.destroyed
}

func (o *Owner[H, T]) Stats() Stats {
	return o.stats
}

// RawBegin forwards a raw begin event from the physics host.
func (o *Owner[H, T]) RawBegin(kind Kind, h H) {
	o.kind(kind).tracker.RawBegin(h)
}

// RawEnd forwards a raw end event from the physics host.
func (o *Owner[H, T]) RawEnd(kind Kind, h H) {
	o.kind(kind).tracker.RawEnd(h)
}

// Tick runs the reconcile pass of both kinds. It must be called once per
// physics step, after all raw events of that step were delivered.
func (o *Owner[H, T]) Tick() {
	if !o.enabled {
		assert.Fail("Tick on owner %q that is not enabled", o.name)
	}

	startTime := time.Now()

	var pass Pass
	for _, kind := range Kinds {
		state := &o.kinds[kind]

		pass = pass.add(state.tracker.Reconcile())

		if state.aggregator != nil && o.enabled {
			pass = pass.add(state.aggregator.Reconcile())
		}

		// a callback might have disabled us
		if !o.enabled {
			break
		}
	}

	if pass.Degraded() {
		o.runtime.Logger().Warn(
			"Degraded reconcile pass",
			slog.String("owner", o.name),
			slog.Int("dropped", pass.Dropped),
		)
	}

	o.stats = o.stats.record(pass)
	o.stats.Tick = o.stats.Tick.Add(time.Since(startTime))
}

// Disable drains both kinds, firing the exit events for every contact. Raw
// events are rejected until the owner is enabled again.
func (o *Owner[H, T]) Disable() {
	if !o.enabled {
		return
	}

	o.enabled = false

	var pass Pass
	for _, kind := range Kinds {
		state := &o.kinds[kind]

		pass = pass.add(state.tracker.ForceDrainAll())

		if state.aggregator != nil {
			pass = pass.add(state.aggregator.ForceDrainAll())
		}
	}

	o.stats = o.stats.record(pass)
}

// Enable re-arms a disabled owner.
func (o *Owner[H, T]) Enable() {
	assert.That(!o.destroyed, "Enable on destroyed owner %q", o.name)

	if o.enabled {
		return
	}

	for _, kind := range Kinds {
		o.kinds[kind].tracker.Activate()
	}

	o.enabled = true
}

// Destroy drains the owner and unregisters it from the runtime. It must be
// called before the entity backing the owner is torn down.
func (o *Owner[H, T]) Destroy() {
	if o.destroyed {
		return
	}

	o.Disable()
	o.destroyed = true
	o.runtime.unregister(o)
}

// Staying returns the staying set of the given kind.
func (o *Owner[H, T]) Staying(kind Kind) Staying[H] {
	return o.kind(kind).tracker.Staying()
}

// Targets returns the targets in contact for the given kind. The second
// return value is false if the owner was created without a hierarchy.
func (o *Owner[H, T]) Targets(kind Kind) (TargetStaying[H, T], bool) {
	aggregator := o.kind(kind).aggregator
	if aggregator == nil {
		return TargetStaying[H, T]{}, false
	}

	return aggregator.Staying(), true
}

func (o *Owner[H, T]) kind(kind Kind) *ownerKind[H, T] {
	if !kind.valid() {
		assert.Fail("invalid contact kind %s", kind)
	}

	return &o.kinds[kind]
}

func (o *Owner[H, T]) resetRuntimeCaches() {
	for _, kind := range Kinds {
		state := &o.kinds[kind]
		state.tracker.Clear()

		if state.aggregator != nil {
			state.aggregator.Clear()
			state.resolver.Reset()
		}
	}
}
