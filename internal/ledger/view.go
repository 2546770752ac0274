package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/timebot/timebot-cli/internal"
)

// LoadFailedMessage is shown whenever a load fails
const LoadFailedMessage = "Failed to load appointments. Please try again later."

// ErrStale is returned by a load whose result was superseded by a newer load
var ErrStale = errors.New("appointment load superseded by a newer request")

// LoadError reports a failed fetch. Its message is the generic user-facing text.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return LoadFailedMessage
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Fetcher is the remote appointment ledger
type Fetcher interface {
	ListAppointments(ctx context.Context, clientID, providerRef string) ([]internal.Appointment, error)
}

type query struct {
	clientID    string
	providerRef string
}

// View holds the buckets of the latest load. Loads may overlap; only the
// result of the most recently issued load is applied.
type View struct {
	fetcher Fetcher
	cache   *internal.SnapshotCache
	now     func() time.Time

	mu       sync.Mutex
	gen      uint64
	query    query
	hasQuery bool
	buckets  Buckets
}

// Option configures a View
type Option func(*View)

// WithCache writes every successful load through to a snapshot cache
func WithCache(cache *internal.SnapshotCache) Option {
	return func(v *View) {
		v.cache = cache
	}
}

// WithClock overrides the fetch timestamp source
func WithClock(now func() time.Time) Option {
	return func(v *View) {
		v.now = now
	}
}

// NewView creates an empty View
func NewView(fetcher Fetcher, opts ...Option) *View {
	v := &View{fetcher: fetcher, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches and classifies the appointments for a query.
// An empty clientID clears the buckets and returns an IdentityMissingError
// without a request. A failed fetch clears the buckets and returns a
// *LoadError. A load overtaken by a newer one returns ErrStale and changes nothing.
func (v *View) Load(ctx context.Context, clientID, providerRef string) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.query = query{clientID: clientID, providerRef: providerRef}
	v.hasQuery = true
	if clientID == "" {
		v.buckets = Buckets{}
		v.mu.Unlock()
		return &internal.IdentityMissingError{Op: "load appointments"}
	}
	v.mu.Unlock()

	records, err := v.fetcher.ListAppointments(ctx, clientID, providerRef)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		internal.LogDebug("Discarding stale appointment load %d (latest %d)", gen, v.gen)
		return ErrStale
	}
	if err != nil {
		internal.LogWarn("Failed to load appointments for client %s: %v", clientID, err)
		v.buckets = Buckets{ClientID: clientID, ProviderRef: providerRef}
		return &LoadError{Err: err}
	}

	b := Classify(records)
	b.ClientID = clientID
	b.ProviderRef = providerRef
	b.FetchedAt = v.now()
	v.buckets = b

	if v.cache != nil {
		snap := &internal.Snapshot{ClientID: clientID, ProviderRef: providerRef, FetchedAt: b.FetchedAt, Appointments: records}
		if err := v.cache.Save(snap); err != nil {
			internal.LogWarn("Failed to cache appointments: %v", err)
		}
	}
	return nil
}

// SetQuery loads when the query differs from the last one issued
func (v *View) SetQuery(ctx context.Context, clientID, providerRef string) error {
	v.mu.Lock()
	same := v.hasQuery && v.query == query{clientID: clientID, providerRef: providerRef}
	v.mu.Unlock()
	if same {
		return nil
	}
	return v.Load(ctx, clientID, providerRef)
}

// LoadCached fills the buckets from the snapshot cache. It returns a
// DataAbsentError when no snapshot younger than ttl exists.
func (v *View) LoadCached(clientID, providerRef string, ttl time.Duration) error {
	if clientID == "" {
		return &internal.IdentityMissingError{Op: "load cached appointments"}
	}
	if v.cache == nil {
		return &internal.DataAbsentError{Entity: "appointment cache"}
	}
	snap, fresh, err := v.cache.Load(clientID, providerRef, ttl)
	if err != nil {
		return err
	}
	if snap == nil || !fresh {
		return &internal.DataAbsentError{Entity: "cached appointments"}
	}

	b := Classify(snap.Appointments)
	b.ClientID = clientID
	b.ProviderRef = providerRef
	b.FetchedAt = snap.FetchedAt

	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.query = query{clientID: clientID, providerRef: providerRef}
	v.hasQuery = true
	v.buckets = b
	return nil
}

// Snapshot returns the buckets of the latest applied load
func (v *View) Snapshot() Buckets {
	v.mu.Lock()
	defer v.mu.Unlock()
	b := v.buckets
	b.Current = append([]internal.Appointment(nil), v.buckets.Current...)
	b.Previous = append([]internal.Appointment(nil), v.buckets.Previous...)
	b.Unclassified = append([]internal.Appointment(nil), v.buckets.Unclassified...)
	return b
}
