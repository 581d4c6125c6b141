package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"muzmates/internal/domain/entity"
	"muzmates/internal/infrastructure/realtime"
	"muzmates/pkg/logger"
)

// CatalogStatus describes how fresh the catalog is.
type CatalogStatus struct {
	Listings  int       `json:"listings"`
	Users     int       `json:"users"`
	LastSync  time.Time `json:"lastSync,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// CatalogStore mirrors the listings and users collections and serves their join.
type CatalogStore struct {
	listingsSource realtime.Source[*entity.Listing]
	usersSource    realtime.Source[*entity.UserProfile]
	opts           []realtime.Option

	// notifyMu orders join and notification together, so listeners see joins in the
	// order they were computed and the last call carries the newest snapshots.
	notifyMu sync.Mutex

	mu              sync.RWMutex
	listings        []*entity.Listing
	users           []*entity.UserProfile
	listingsVersion uint64
	usersVersion    uint64
	joined          []entity.JoinedListing
	joinedListings  uint64
	joinedUsers     uint64
	lastSync        time.Time
	lastErr         error
	listeners       []func([]entity.JoinedListing)

	cancelMu sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewCatalogStore(listings realtime.Source[*entity.Listing], users realtime.Source[*entity.UserProfile], opts ...realtime.Option) *CatalogStore {
	return &CatalogStore{
		listingsSource: listings,
		usersSource:    users,
		opts:           opts,
		joined:         []entity.JoinedListing{},
	}
}

// OnChange registers fn to receive the joined view after every snapshot of either collection.
func (c *CatalogStore) OnChange(fn func([]entity.JoinedListing)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Run keeps both subscriptions open until ctx is cancelled or Stop is called.
func (c *CatalogStore) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer close(done)

	c.cancelMu.Lock()
	c.cancel = cancel
	c.done = done
	c.cancelMu.Unlock()
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sub := realtime.Subscribe(gctx, "listings", c.listingsSource, c.setListings, c.recordError, c.opts...)
		<-gctx.Done()
		sub.Stop()
		return nil
	})
	g.Go(func() error {
		sub := realtime.Subscribe(gctx, "users", c.usersSource, c.setUsers, c.recordError, c.opts...)
		<-gctx.Done()
		sub.Stop()
		return nil
	})

	logger.Info("Catalog subscriptions started")
	err := g.Wait()
	logger.Info("Catalog subscriptions stopped")
	return err
}

// Stop tears both subscriptions down and waits for Run to return.
func (c *CatalogStore) Stop() {
	c.cancelMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancelMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Listings returns the joined view, recomputing it only when a snapshot arrived since
// the last computation.
func (c *CatalogStore) Listings() []entity.JoinedListing {
	c.mu.RLock()
	if c.fresh() {
		joined := c.joined
		c.mu.RUnlock()
		return joined
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joinLocked()
}

func (c *CatalogStore) Status() CatalogStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := CatalogStatus{
		Listings: len(c.listings),
		Users:    len(c.users),
		LastSync: c.lastSync,
	}
	if c.lastErr != nil {
		status.LastError = c.lastErr.Error()
	}
	return status
}

func (c *CatalogStore) setListings(items []*entity.Listing) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	c.listings = items
	c.listingsVersion++
	c.publishLocked()
}

func (c *CatalogStore) setUsers(items []*entity.UserProfile) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	c.users = items
	c.usersVersion++
	c.publishLocked()
}

// publishLocked recomputes the join, releases mu and notifies listeners. The caller holds notifyMu.
func (c *CatalogStore) publishLocked() {
	c.lastSync = time.Now()
	c.lastErr = nil
	joined := c.joinLocked()
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(joined)
	}
}

func (c *CatalogStore) recordError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *CatalogStore) fresh() bool {
	return c.joinedListings == c.listingsVersion && c.joinedUsers == c.usersVersion
}

func (c *CatalogStore) joinLocked() []entity.JoinedListing {
	if !c.fresh() {
		c.joined = JoinListings(c.listings, c.users)
		c.joinedListings = c.listingsVersion
		c.joinedUsers = c.usersVersion
	}
	return c.joined
}
