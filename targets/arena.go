package targets

import (
	"sync"

	imageload "github.com/filecoin-project/go-imageload"
)

type targetRecord struct {
	cachedImage   imageload.Image
	cachedCurrent bool
}

// Arena allocates the opaque identity handles that correlate image loads with
// the long-lived entities they belong to, and holds the cached image state
// for each one. Handles are plain values; comparing two handles for equality
// answers "is this the same entity" without holding object references across
// contexts.
type Arena struct {
	recordsLk sync.RWMutex
	records   map[imageload.Identity]*targetRecord
	nextID    imageload.Identity
}

// NewArena returns an empty arena. Handle 0 is reserved for NoIdentity and
// is never allocated.
func NewArena() *Arena {
	return &Arena{
		records: make(map[imageload.Identity]*targetRecord),
	}
}

// Allocate creates a new target record and returns its handle.
func (a *Arena) Allocate() imageload.Identity {
	a.recordsLk.Lock()
	defer a.recordsLk.Unlock()
	a.nextID++
	id := a.nextID
	a.records[id] = &targetRecord{}
	return id
}

// Release drops the record for the given handle. Subsequent attaches to the
// handle are no-ops, so a result arriving after its entity went away simply
// falls on the floor.
func (a *Arena) Release(id imageload.Identity) {
	a.recordsLk.Lock()
	defer a.recordsLk.Unlock()
	delete(a.records, id)
}

// AttachCachedImage stores the decoded image on the target record.
func (a *Arena) AttachCachedImage(id imageload.Identity, img imageload.Image) {
	a.recordsLk.Lock()
	defer a.recordsLk.Unlock()
	record, ok := a.records[id]
	if !ok {
		return
	}
	record.cachedImage = img
}

// MarkCachedImageCurrent notes that the cached image state for the target is
// up to date. This is stamped whether or not a load produced an image: "we
// looked and found nothing" is a current answer too.
func (a *Arena) MarkCachedImageCurrent(id imageload.Identity) {
	a.recordsLk.Lock()
	defer a.recordsLk.Unlock()
	record, ok := a.records[id]
	if !ok {
		return
	}
	record.cachedCurrent = true
}

// CachedImage returns the cached image for the target, if one was attached.
func (a *Arena) CachedImage(id imageload.Identity) (imageload.Image, bool) {
	a.recordsLk.RLock()
	defer a.recordsLk.RUnlock()
	record, ok := a.records[id]
	if !ok || record.cachedImage == nil {
		return nil, false
	}
	return record.cachedImage, true
}

// IsCachedImageCurrent reports whether a completed load has stamped the
// target since it was allocated.
func (a *Arena) IsCachedImageCurrent(id imageload.Identity) bool {
	a.recordsLk.RLock()
	defer a.recordsLk.RUnlock()
	record, ok := a.records[id]
	return ok && record.cachedCurrent
}
