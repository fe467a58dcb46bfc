// Package contact provides reliable contact notifications on top of a physics
// engine that drops "end" events when a participant is disabled or destroyed
// while in contact.
//
// A Tracker keeps the set of raw handles currently staying in contact with an
// owner and emits Enter, Stay, Exit and StayingChanged. Its reconcile pass runs
// once per physics step and synthesizes the exits the engine did not deliver.
// An Aggregator collapses the raw handles of one logical target, resolved
// through a cached Resolver, into a single target level stream.
//
// Everything in this package is single threaded and must be driven from the
// simulation thread. Owners are created from a Runtime, which also provides
// the reset entry point for hosts that start new simulation sessions without
// restarting the process.
package contact
