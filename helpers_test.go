package contact

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// fakeHost is an in memory host where handles and targets are plain strings.
type fakeHost struct {
	dead     map[string]bool
	disabled map[string]bool
	inactive map[string]bool

	groups  map[string]Mask
	parents map[string]string

	deadTargets     map[string]bool
	inactiveTargets map[string]bool
	targetGroups    map[string]Mask

	livenessQueries int
	targetLookups   int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		dead:            map[string]bool{},
		disabled:        map[string]bool{},
		inactive:        map[string]bool{},
		groups:          map[string]Mask{},
		parents:         map[string]string{},
		deadTargets:     map[string]bool{},
		inactiveTargets: map[string]bool{},
		targetGroups:    map[string]Mask{},
	}
}

func (h *fakeHost) Alive(handle string) bool {
	h.livenessQueries += 1
	return !h.dead[handle]
}

func (h *fakeHost) Enabled(handle string) bool {
	h.livenessQueries += 1
	return !h.disabled[handle]
}

func (h *fakeHost) ActiveInHierarchy(handle string) bool {
	h.livenessQueries += 1
	return !h.inactive[handle]
}

func (h *fakeHost) HandleGroup(handle string) Mask {
	if group, ok := h.groups[handle]; ok {
		return group
	}

	return Group(0)
}

func (h *fakeHost) NearestTarget(handle string) (string, bool) {
	h.targetLookups += 1
	target, ok := h.parents[handle]
	return target, ok
}

func (h *fakeHost) IsWithin(handle string, target string) bool {
	return h.parents[handle] == target
}

func (h *fakeHost) TargetGroup(target string) Mask {
	if group, ok := h.targetGroups[target]; ok {
		return group
	}

	return Group(0)
}

func (h *fakeHost) TargetAlive(target string) bool {
	return !h.deadTargets[target]
}

func (h *fakeHost) TargetActive(target string) bool {
	return !h.inactiveTargets[target]
}

// recorder collects notifications as strings in the order they arrive.
type recorder struct {
	events []string
}

func (r *recorder) callbacks() Callbacks[string] {
	return Callbacks[string]{
		OnEnter: func(h string) { r.add("enter %s", h) },
		OnStay:  func(h string) { r.add("stay %s", h) },
		OnExit:  func(h string) { r.add("exit %s", h) },
		OnStayingChanged: func(staying Staying[string]) {
			r.add("changed %s", sortedString(slices.Collect(staying.All())))
		},
	}
}

func (r *recorder) targetCallbacks() TargetCallbacks[string, string] {
	return TargetCallbacks[string, string]{
		OnEnter: func(target string) { r.add("target enter %s", target) },
		OnStay:  func(target string) { r.add("target stay %s", target) },
		OnExit:  func(target string) { r.add("target exit %s", target) },
		OnStayingChanged: func(staying TargetStaying[string, string]) {
			var parts []string
			for target := range staying.Targets() {
				parts = append(parts, target+":"+sortedString(slices.Collect(staying.Handles(target))))
			}

			r.add("target changed %s", sortedString(parts))
		},
	}
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

// take returns the recorded events and resets the recorder.
func (r *recorder) take() []string {
	events := r.events
	r.events = nil
	return events
}

func sortedString(values []string) string {
	slices.Sort(values)
	return "{" + strings.Join(values, ",") + "}"
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPool() *ScratchPool {
	return NewScratchPool(quietLogger())
}
