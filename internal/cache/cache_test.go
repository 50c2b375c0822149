package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Names []string
}

func key(identity, endpoint string) Key {
	return Key{Identity: identity, Endpoint: endpoint, Skip: 0, Take: 200}
}

func TestCacheable(t *testing.T) {
	for _, endpoint := range []string{
		"users", "queues", "ticketsCategories", "groups",
		"pauses", "statuses", "templates", "campaignsTypes",
	} {
		assert.True(t, Cacheable(endpoint), endpoint)
	}

	assert.False(t, Cacheable("tickets"), "transactional entities are never cached")
	assert.False(t, Cacheable("activities"))
	assert.False(t, Cacheable(""))
}

func TestKey_String(t *testing.T) {
	k := Key{
		Identity: "https://acme.daktela.com|agent",
		Endpoint: "queues",
		Skip:     20,
		Take:     200,
		Sort:     "title",
		SortDir:  "asc",
	}
	assert.Equal(t, "https://acme.daktela.com|agent|queues|20|200|title|asc", k.String())

	unsorted := Key{Identity: "id", Endpoint: "queues", Take: 200}
	assert.Equal(t, "id|queues|0|200||", unsorted.String())
}

func TestReference_RoundTrip(t *testing.T) {
	ref := NewReference[page](true, time.Minute)

	k := key("tenant-a", "queues")

	_, ok := ref.Get(k)
	assert.False(t, ok, "empty cache misses")

	ref.Put(k, page{Names: []string{"support"}})

	got, ok := ref.Get(k)
	require.True(t, ok)
	assert.Equal(t, []string{"support"}, got.Names)
}

func TestReference_IdentityIsolation(t *testing.T) {
	ref := NewReference[page](true, time.Minute)

	ref.Put(key("tenant-a", "queues"), page{Names: []string{"a"}})

	_, ok := ref.Get(key("tenant-b", "queues"))
	assert.False(t, ok, "another identity must not see the entry")

	got, ok := ref.Get(key("tenant-a", "queues"))
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got.Names)
}

func TestReference_PageParametersScopeEntries(t *testing.T) {
	ref := NewReference[page](true, time.Minute)

	first := Key{Identity: "id", Endpoint: "users", Skip: 0, Take: 200}
	second := Key{Identity: "id", Endpoint: "users", Skip: 200, Take: 200}

	ref.Put(first, page{Names: []string{"first"}})

	_, ok := ref.Get(second)
	assert.False(t, ok, "a different page is a different entry")
}

func TestReference_NonAllowListedEndpoint(t *testing.T) {
	ref := NewReference[page](true, time.Minute)

	k := key("tenant-a", "tickets")
	ref.Put(k, page{Names: []string{"nope"}})

	_, ok := ref.Get(k)
	assert.False(t, ok, "writes to non-reference endpoints are dropped")
}

func TestReference_Disabled(t *testing.T) {
	ref := NewReference[page](false, time.Minute)

	k := key("tenant-a", "queues")
	ref.Put(k, page{Names: []string{"support"}})

	_, ok := ref.Get(k)
	assert.False(t, ok, "disabled cache always misses")
}

func TestReference_TTLExpiry(t *testing.T) {
	ref := NewReference[page](true, 10*time.Millisecond)

	k := key("tenant-a", "queues")
	ref.Put(k, page{Names: []string{"support"}})

	_, ok := ref.Get(k)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	_, ok = ref.Get(k)
	assert.False(t, ok, "entry expires after the TTL")
}

func TestReference_Clear(t *testing.T) {
	ref := NewReference[page](true, time.Minute)

	ref.Put(key("tenant-a", "queues"), page{Names: []string{"a"}})
	ref.Put(key("tenant-a", "users"), page{Names: []string{"b"}})

	ref.Clear()

	_, ok := ref.Get(key("tenant-a", "queues"))
	assert.False(t, ok)
	_, ok = ref.Get(key("tenant-a", "users"))
	assert.False(t, ok)
}
