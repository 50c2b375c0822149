// Package cache provides the process-wide, identity-scoped TTL cache for
// slow-changing reference data. The store is shared by every request in the
// process and is safe for concurrent use; it is never persisted.
package cache

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

// cacheableEndpoints is the fixed allow-list of reference/lookup entities.
// Only filter-free, search-free, projection-free pages of these endpoints
// are eligible; everything else always misses.
var cacheableEndpoints = []string{
	"users",
	"queues",
	"ticketsCategories",
	"groups",
	"pauses",
	"statuses",
	"templates",
	"campaignsTypes",
}

// Cacheable reports whether an endpoint is in the reference-data allow-list.
func Cacheable(endpoint string) bool {
	return slices.Contains(cacheableEndpoints, endpoint)
}

// Key identifies one cached page. Identity scopes entries to a tenant so
// that connections to different instances (or as different users) never
// collide.
type Key struct {
	Identity string
	Endpoint string
	Skip     int
	Take     int
	Sort     string
	SortDir  string
}

// String joins all components with a delimiter that cannot appear in a
// legitimate component. An absent sort field is the empty string, so "no
// sort" and "empty sort" encode identically; both mean provider order.
func (k Key) String() string {
	return strings.Join([]string{
		k.Identity,
		k.Endpoint,
		strconv.Itoa(k.Skip),
		strconv.Itoa(k.Take),
		k.Sort,
		k.SortDir,
	}, "|")
}

const maxEntries = 10_000

// Reference is a TTL cache over pages of type T. Expired entries are
// evicted by the store's own bounded maintenance; there is no background
// sweeper owned by this package.
type Reference[T any] struct {
	enabled bool
	ttl     time.Duration

	mu    sync.Mutex
	store *otter.Cache[string, T]
}

// NewReference builds the cache with the configured policy. A disabled
// cache still answers every call, reporting misses and dropping writes.
func NewReference[T any](enabled bool, ttl time.Duration) *Reference[T] {
	return &Reference[T]{
		enabled: enabled,
		ttl:     ttl,
		store:   newStore[T](ttl),
	}
}

func newStore[T any](ttl time.Duration) *otter.Cache[string, T] {
	return otter.Must(&otter.Options[string, T]{
		MaximumSize:      maxEntries,
		ExpiryCalculator: otter.ExpiryCreating[string, T](ttl),
	})
}

// Get returns the cached page for the key. Absent when caching is disabled,
// the endpoint is not allow-listed, no entry exists, or the entry expired.
func (r *Reference[T]) Get(key Key) (T, bool) {
	var zero T
	if !r.enabled || !Cacheable(key.Endpoint) {
		return zero, false
	}

	entry, ok := r.current().GetEntry(key.String())
	if !ok {
		return zero, false
	}
	return entry.Value, true
}

// Put stores a page under the key. A no-op under the same disable and
// allow-list conditions as Get. Concurrent writers to the same key are
// last-writer-wins: entries are idempotent recomputations of one query.
func (r *Reference[T]) Put(key Key, value T) {
	if !r.enabled || !Cacheable(key.Endpoint) {
		return
	}
	r.current().Set(key.String(), value)
}

// Clear unconditionally empties the store.
func (r *Reference[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = newStore[T](r.ttl)
}

func (r *Reference[T]) current() *otter.Cache[string, T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store
}
