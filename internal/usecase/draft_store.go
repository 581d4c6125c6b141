package usecase

import (
	"sync"

	"muzmates/internal/domain/entity"
	"muzmates/pkg/errors"
)

// DraftStore holds the in-progress listing of each identity. It lives in memory only;
// a draft does not survive a restart, matching its lifetime on the device.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*entity.ListingDraft

	listenerMu sync.RWMutex
	onChange   []func(uid string, draft entity.ListingDraft)
	onProgress []func(uid string, pct float64)
}

func NewDraftStore() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]*entity.ListingDraft),
	}
}

func (d *DraftStore) OnChange(fn func(uid string, draft entity.ListingDraft)) {
	d.listenerMu.Lock()
	d.onChange = append(d.onChange, fn)
	d.listenerMu.Unlock()
}

func (d *DraftStore) OnProgress(fn func(uid string, pct float64)) {
	d.listenerMu.Lock()
	d.onProgress = append(d.onProgress, fn)
	d.listenerMu.Unlock()
}

func (d *DraftStore) Get(uid string) entity.ListingDraft {
	d.mu.RLock()
	defer d.mu.RUnlock()

	draft, ok := d.drafts[uid]
	if !ok {
		return entity.EmptyDraft()
	}
	return copyDraft(draft)
}

// Remaining reports how many more images the draft accepts.
func (d *DraftStore) Remaining(uid string) int {
	return entity.MaxListingImages - len(d.Get(uid).ListingImages)
}

func (d *DraftStore) AddImage(uid, url string) (entity.ListingDraft, error) {
	d.mu.Lock()
	draft := d.draftLocked(uid)
	if len(draft.ListingImages) >= entity.MaxListingImages {
		d.mu.Unlock()
		return entity.ListingDraft{}, errors.Validation(msgTooManyImages)
	}
	draft.ListingImages = append(draft.ListingImages, url)
	snapshot := copyDraft(draft)
	d.mu.Unlock()

	d.notify(uid, snapshot)
	return snapshot, nil
}

// SetImages replaces the image list, used when editing an existing listing.
func (d *DraftStore) SetImages(uid string, urls []string) (entity.ListingDraft, error) {
	if len(urls) > entity.MaxListingImages {
		return entity.ListingDraft{}, errors.Validation(msgTooManyImages)
	}

	d.mu.Lock()
	draft := d.draftLocked(uid)
	draft.ListingImages = append([]string{}, urls...)
	snapshot := copyDraft(draft)
	d.mu.Unlock()

	d.notify(uid, snapshot)
	return snapshot, nil
}

func (d *DraftStore) RemoveImage(uid, url string) entity.ListingDraft {
	d.mu.Lock()
	draft := d.draftLocked(uid)
	kept := draft.ListingImages[:0]
	for _, image := range draft.ListingImages {
		if image != url {
			kept = append(kept, image)
		}
	}
	draft.ListingImages = kept
	snapshot := copyDraft(draft)
	d.mu.Unlock()

	d.notify(uid, snapshot)
	return snapshot
}

// SetPlace records the chosen address. Coordinates are only replaced when provided.
func (d *DraftStore) SetPlace(uid, address string, lat, lon *float64) entity.ListingDraft {
	d.mu.Lock()
	draft := d.draftLocked(uid)
	draft.ListingAddress = &address
	if lat != nil {
		draft.ListingLat = *lat
	}
	if lon != nil {
		draft.ListingLon = *lon
	}
	snapshot := copyDraft(draft)
	d.mu.Unlock()

	d.notify(uid, snapshot)
	return snapshot
}

func (d *DraftStore) SetProgress(uid string, pct float64) {
	d.mu.Lock()
	d.draftLocked(uid).UploadProgress = pct
	d.mu.Unlock()

	d.listenerMu.RLock()
	listeners := d.onProgress
	d.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(uid, pct)
	}
}

// Reset drops the draft of uid: no images, no address, zero coordinates and progress.
func (d *DraftStore) Reset(uid string) {
	if uid == "" {
		return
	}

	d.mu.Lock()
	delete(d.drafts, uid)
	d.mu.Unlock()

	d.notify(uid, entity.EmptyDraft())
}

func (d *DraftStore) draftLocked(uid string) *entity.ListingDraft {
	draft, ok := d.drafts[uid]
	if !ok {
		empty := entity.EmptyDraft()
		draft = &empty
		d.drafts[uid] = draft
	}
	return draft
}

func (d *DraftStore) notify(uid string, draft entity.ListingDraft) {
	d.listenerMu.RLock()
	listeners := d.onChange
	d.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(uid, draft)
	}
}

func copyDraft(draft *entity.ListingDraft) entity.ListingDraft {
	out := *draft
	out.ListingImages = append([]string{}, draft.ListingImages...)
	if draft.ListingAddress != nil {
		address := *draft.ListingAddress
		out.ListingAddress = &address
	}
	return out
}
