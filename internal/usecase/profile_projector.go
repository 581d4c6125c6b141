package usecase

import (
	"context"
	"sync"

	"muzmates/internal/domain/entity"
	"muzmates/internal/infrastructure/realtime"
	"muzmates/pkg/logger"
)

// ProfileFeedFactory opens the users/{uid} feed.
type ProfileFeedFactory func(uid string) realtime.Source[*entity.UserProfile]

// ProfileProjector follows the profile document of one identity at a time.
type ProfileProjector struct {
	feeds    ProfileFeedFactory
	opts     []realtime.Option
	onChange func(*entity.UserProfile)

	mu      sync.RWMutex
	uid     string
	current *entity.UserProfile
	loaded  bool
	sub     *realtime.Subscription
}

func NewProfileProjector(feeds ProfileFeedFactory, onChange func(*entity.UserProfile), opts ...realtime.Option) *ProfileProjector {
	return &ProfileProjector{
		feeds:    feeds,
		opts:     opts,
		onChange: onChange,
	}
}

// Watch switches the projection to uid, tearing down any previous subscription first.
func (p *ProfileProjector) Watch(ctx context.Context, uid string) {
	p.Stop()

	p.mu.Lock()
	p.uid = uid
	p.mu.Unlock()

	sub := realtime.Subscribe(ctx, "profile:"+uid, p.feeds(uid), func(items []*entity.UserProfile) {
		p.deliver(uid, items)
	}, func(err error) {
		logger.Warn("Profile subscription for %s failed: %v", uid, err)
	}, p.opts...)

	p.mu.Lock()
	if p.uid == uid && p.sub == nil {
		p.sub = sub
		sub = nil
	}
	p.mu.Unlock()

	// Lost a race with Stop or another Watch.
	if sub != nil {
		sub.Stop()
	}
}

// Stop ends the subscription and forgets the profile.
func (p *ProfileProjector) Stop() {
	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	p.uid = ""
	p.current = nil
	p.loaded = false
	p.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

// Current returns the profile of the watched identity, or nil when there is none yet.
func (p *ProfileProjector) Current() *entity.UserProfile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	profile := *p.current
	return &profile
}

// Loaded reports whether the first snapshot for the watched identity has arrived.
func (p *ProfileProjector) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

func (p *ProfileProjector) deliver(uid string, items []*entity.UserProfile) {
	var profile *entity.UserProfile
	if len(items) > 0 {
		profile = items[0]
	}

	p.mu.Lock()
	if p.uid != uid {
		p.mu.Unlock()
		return
	}
	p.current = profile
	p.loaded = true
	p.mu.Unlock()

	if p.onChange != nil {
		p.onChange(profile)
	}
}
