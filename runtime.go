package contact

import (
	"log/slog"

	"github.com/oliverbestmann/contact/internal/set"
)

// Config holds the settings shared by all owners of a Runtime.
type Config struct {
	// ScratchCapacity is the number of handles a single reconcile pass can
	// collect for removal. Excess handles are removed on a later pass.
	ScratchCapacity int

	// GroupMask is the default mask of groups accepted at first contact.
	GroupMask Mask

	// StayMode is the default target level stay mode.
	StayMode StayMode

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		ScratchCapacity: 64,
		GroupMask:       AllGroups,
		StayMode:        StayPerTarget,
		Logger:          slog.Default(),
	}
}

type resettable interface {
	resetRuntimeCaches()
}

// Runtime is the root object of the contact tracking subsystem. It owns the
// scratch pool and knows every live owner, so that all runtime caches can be
// reset when the application starts a fresh simulation session without
// restarting the process.
//
// A Runtime, and everything created from it, must only be used from the
// simulation thread.
type Runtime struct {
	config Config
	pool   *ScratchPool
	owners set.Set[resettable]
}

// NewRuntime creates a new runtime. Zero fields in config are replaced by
// their defaults.
func NewRuntime(config Config) *Runtime {
	defaults := DefaultConfig()

	if config.ScratchCapacity <= 0 {
		config.ScratchCapacity = defaults.ScratchCapacity
	}

	if config.GroupMask == 0 {
		config.GroupMask = defaults.GroupMask
	}

	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Runtime{
		config: config,
		pool:   NewScratchPool(config.Logger),
	}
}

func (rt *Runtime) Config() Config {
	return rt.config
}

func (rt *Runtime) Pool() *ScratchPool {
	return rt.pool
}

func (rt *Runtime) Logger() *slog.Logger {
	return rt.config.Logger
}

// Owners returns the number of owners that were created and not yet destroyed.
func (rt *Runtime) Owners() int {
	return rt.owners.Len()
}

// ResetRuntimeCaches must be called whenever the application enters a fresh
// simulation session without a full process restart. It resets the scratch
// pool and silently clears all staying sets, target sets and resolver caches.
//
// Calling it from a callback is allowed. The pass in flight stops without
// firing further events.
func (rt *Runtime) ResetRuntimeCaches() {
	rt.pool.Reset()

	for owner := range rt.owners.Values() {
		owner.resetRuntimeCaches()
	}

	rt.config.Logger.Debug("Runtime caches reset", slog.Int("owners", rt.owners.Len()))
}

func (rt *Runtime) register(owner resettable) {
	rt.owners.Insert(owner)
}

func (rt *Runtime) unregister(owner resettable) {
	rt.owners.Remove(owner)
}
