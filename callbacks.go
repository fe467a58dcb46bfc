package contact

import (
	"iter"

	"github.com/oliverbestmann/contact/internal/set"
)

// Callbacks is the bundle of handle level notifications of one tracker.
// Nil slots are skipped.
//
// OnStayingChanged is always invoked right before the OnEnter or OnExit it
// belongs to, and already sees the updated set.
type Callbacks[H comparable] struct {
	OnEnter          func(h H)
	OnStay           func(h H)
	OnExit           func(h H)
	OnStayingChanged func(staying Staying[H])
}

func (c *Callbacks[H]) enter(h H) {
	if c.OnEnter != nil {
		c.OnEnter(h)
	}
}

func (c *Callbacks[H]) stay(h H) {
	if c.OnStay != nil {
		c.OnStay(h)
	}
}

func (c *Callbacks[H]) exit(h H) {
	if c.OnExit != nil {
		c.OnExit(h)
	}
}

func (c *Callbacks[H]) stayingChanged(staying Staying[H]) {
	if c.OnStayingChanged != nil {
		c.OnStayingChanged(staying)
	}
}

// Fanout combines multiple bundles into one. Each notification is delivered to
// the bundles in the order they were passed.
func Fanout[H comparable](bundles ...Callbacks[H]) Callbacks[H] {
	switch len(bundles) {
	case 0:
		return Callbacks[H]{}
	case 1:
		return bundles[0]
	}

	return Callbacks[H]{
		OnEnter: func(h H) {
			for idx := range bundles {
				bundles[idx].enter(h)
			}
		},
		OnStay: func(h H) {
			for idx := range bundles {
				bundles[idx].stay(h)
			}
		},
		OnExit: func(h H) {
			for idx := range bundles {
				bundles[idx].exit(h)
			}
		},
		OnStayingChanged: func(staying Staying[H]) {
			for idx := range bundles {
				bundles[idx].stayingChanged(staying)
			}
		},
	}
}

// Staying is a read only view of a staying set. It reflects the live set,
// copy the values if you need to keep them beyond the callback.
type Staying[H comparable] struct {
	set *set.Set[H]
}

func (s Staying[H]) Len() int {
	if s.set == nil {
		return 0
	}

	return s.set.Len()
}

func (s Staying[H]) Has(h H) bool {
	return s.set != nil && s.set.Has(h)
}

func (s Staying[H]) All() iter.Seq[H] {
	if s.set == nil {
		return func(yield func(H) bool) {}
	}

	return s.set.Values()
}
