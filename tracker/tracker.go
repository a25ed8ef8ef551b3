package tracker

import (
	imageload "github.com/filecoin-project/go-imageload"
)

// DisplayMode describes what the slot bound to a tracker currently shows
type DisplayMode int

const (
	// DisplayUndefined means no decision has been made yet for the slot
	DisplayUndefined DisplayMode = iota

	// DisplayImage means the slot is showing (or loading) a real image
	DisplayImage

	// DisplayDefault means the slot fell back to the default image
	DisplayDefault
)

// LocatorResolver derives the image locator for a given identity. Returns
// false when the identity has no image resource associated with it.
type LocatorResolver func(imageload.Identity) (imageload.Locator, bool)

// Tracker holds the per-slot state used to suppress redundant image loads as
// identity queries, image loads, and slot reassignments mix with each other.
//
// A Tracker is owned by the issuing context and is not safe for concurrent
// use. One Tracker per slot; never shared across slots.
type Tracker struct {
	current imageload.Identity
	mode    DisplayMode
	resolve LocatorResolver
}

// New returns a tracker with no current identity and an undefined display
// mode. The resolver may be nil if PhotoLocator is never used.
func New(resolve LocatorResolver) *Tracker {
	return &Tracker{
		current: imageload.NoIdentity,
		mode:    DisplayUndefined,
		resolve: resolve,
	}
}

// ShouldLoad reports whether a load for id would target a different entity
// than the one this slot currently displays or is loading.
//
// Identity handles are stable for the lifetime of the entity they name, so a
// plain value comparison is sufficient. NoIdentity compares equal only to a
// tracker that also has no current identity.
func (t *Tracker) ShouldLoad(id imageload.Identity) bool {
	return t.current != id
}

// SetIdentity records the identity now considered current for this slot.
// Call it before (or atomically with) dispatching the corresponding load, so
// that a subsequent ShouldLoad observes the update.
func (t *Tracker) SetIdentity(id imageload.Identity) {
	t.current = id
}

// Identity returns the identity currently recorded for this slot.
func (t *Tracker) Identity() imageload.Identity {
	return t.current
}

// SetDisplayMode records what the slot is showing.
func (t *Tracker) SetDisplayMode(mode DisplayMode) {
	t.mode = mode
}

// DisplayMode returns what the slot is showing.
func (t *Tracker) DisplayMode() DisplayMode {
	return t.mode
}

// PhotoLocator derives the locator for the current identity through the
// resolver. Returns the empty locator when there is no current identity, no
// resolver, or the identity has no image resource.
func (t *Tracker) PhotoLocator() imageload.Locator {
	if t.current == imageload.NoIdentity || t.resolve == nil {
		return ""
	}
	locator, ok := t.resolve(t.current)
	if !ok {
		return ""
	}
	return locator
}
