package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"membership-portal/models"
)

// mockSubscriptionAPI implements SubscriptionAPI for testing
type mockSubscriptionAPI struct {
	listFunc func(ctx context.Context, page int) ([]Subscription, error)
	cityFunc func(ctx context.Context, subscriptionID string) (string, error)

	mu        sync.Mutex
	listCalls int
	cityCalls []string
}

func (m *mockSubscriptionAPI) ListSubscriptions(ctx context.Context, page int) ([]Subscription, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listFunc != nil {
		return m.listFunc(ctx, page)
	}
	return nil, nil
}

func (m *mockSubscriptionAPI) SubscriptionCity(ctx context.Context, subscriptionID string) (string, error) {
	m.mu.Lock()
	m.cityCalls = append(m.cityCalls, subscriptionID)
	m.mu.Unlock()
	if m.cityFunc != nil {
		return m.cityFunc(ctx, subscriptionID)
	}
	return "", nil
}

// mockMemberCache implements MemberCache for testing
type cacheEntry struct {
	member    models.Member
	updatedAt time.Time
}

type mockMemberCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	kept    []string
}

func newMockMemberCache() *mockMemberCache {
	return &mockMemberCache{entries: map[string]cacheEntry{}}
}

func (c *mockMemberCache) GetCachedMember(ctx context.Context, id string, ttl time.Duration) (*models.Member, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || time.Since(e.updatedAt) > ttl {
		return nil, false, nil
	}
	m := e.member
	return &m, true, nil
}

func (c *mockMemberCache) PutCachedMember(ctx context.Context, id string, m models.Member) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{member: m, updatedAt: time.Now()}
	return nil
}

func (c *mockMemberCache) EvictCachedMembersExcept(ctx context.Context, keep []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kept = keep
	keepSet := map[string]bool{}
	for _, id := range keep {
		keepSet[id] = true
	}
	for id := range c.entries {
		if !keepSet[id] {
			delete(c.entries, id)
		}
	}
	return nil
}

func sub(id, name, status string) Subscription {
	return Subscription{
		SubscriptionID:    id,
		CustomerName:      name,
		Email:             name + "@example.com",
		PlanName:          "Life Member",
		Status:            status,
		CurrentTermEndsAt: "2026-12-31",
	}
}

func newTestDirectory(api SubscriptionAPI, cache MemberCache) *DirectoryService {
	d := NewDirectoryService(api, cache, nil)
	d.BatchPause = 0
	return d
}

func TestActiveMembersEmptyFirstPage(t *testing.T) {
	api := &mockSubscriptionAPI{}
	d := newTestDirectory(api, newMockMemberCache())

	members, err := d.ActiveMembers(context.Background())
	if err != nil {
		t.Fatalf("ActiveMembers returned error: %v", err)
	}
	if members == nil || len(members) != 0 {
		t.Errorf("expected empty non-nil member list, got %v", members)
	}
	if api.listCalls != 1 {
		t.Errorf("expected pagination to stop after page 1, got %d calls", api.listCalls)
	}
}

func TestActiveMembersFiltersLive(t *testing.T) {
	api := &mockSubscriptionAPI{
		listFunc: func(ctx context.Context, page int) ([]Subscription, error) {
			if page == 1 {
				return []Subscription{
					sub("s1", "Asha", "live"),
					sub("s2", "Binod", "cancelled"),
					sub("s3", "Chitra", "Live"),
				}, nil
			}
			return nil, nil
		},
		cityFunc: func(ctx context.Context, id string) (string, error) {
			return "Chennai", nil
		},
	}
	d := newTestDirectory(api, newMockMemberCache())

	members, err := d.ActiveMembers(context.Background())
	if err != nil {
		t.Fatalf("ActiveMembers returned error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 live members, got %d", len(members))
	}
	if members[0].Name != "Asha" || members[1].Name != "Chitra" {
		t.Errorf("unexpected members: %v", members)
	}
	if members[0].City != "Chennai" {
		t.Errorf("expected enriched city, got %q", members[0].City)
	}
}

func TestActiveMembersPaginationGuard(t *testing.T) {
	api := &mockSubscriptionAPI{
		listFunc: func(ctx context.Context, page int) ([]Subscription, error) {
			// Upstream misbehaves and never returns an empty page.
			return []Subscription{sub(fmt.Sprintf("s%d", page), "Member", "live")}, nil
		},
	}
	d := newTestDirectory(api, newMockMemberCache())
	d.MaxPages = 5

	if _, err := d.ActiveMembers(context.Background()); err != nil {
		t.Fatalf("ActiveMembers returned error: %v", err)
	}
	if api.listCalls != 5 {
		t.Errorf("expected hard stop at 5 pages, got %d calls", api.listCalls)
	}
}

func TestActiveMembersDropsFailedEnrichment(t *testing.T) {
	api := &mockSubscriptionAPI{
		listFunc: func(ctx context.Context, page int) ([]Subscription, error) {
			if page == 1 {
				return []Subscription{sub("good", "Asha", "live"), sub("bad", "Binod", "live")}, nil
			}
			return nil, nil
		},
		cityFunc: func(ctx context.Context, id string) (string, error) {
			if id == "bad" {
				return "", fmt.Errorf("rate limited")
			}
			return "Mumbai", nil
		},
	}
	d := newTestDirectory(api, newMockMemberCache())

	members, err := d.ActiveMembers(context.Background())
	if err != nil {
		t.Fatalf("ActiveMembers returned error: %v", err)
	}
	if len(members) != 1 || members[0].Name != "Asha" {
		t.Errorf("expected only the enriched member, got %v", members)
	}
}

func TestActiveMembersUsesFreshCache(t *testing.T) {
	cache := newMockMemberCache()
	cache.PutCachedMember(context.Background(), "s1", models.Member{
		Name: "Cached Asha", Email: "asha@example.com", Membership: "Life Member", City: "Delhi",
	})

	api := &mockSubscriptionAPI{
		listFunc: func(ctx context.Context, page int) ([]Subscription, error) {
			if page == 1 {
				return []Subscription{sub("s1", "Asha", "live")}, nil
			}
			return nil, nil
		},
	}
	d := newTestDirectory(api, cache)

	members, err := d.ActiveMembers(context.Background())
	if err != nil {
		t.Fatalf("ActiveMembers returned error: %v", err)
	}
	if len(members) != 1 || members[0].Name != "Cached Asha" {
		t.Errorf("expected cached member, got %v", members)
	}
	if len(api.cityCalls) != 0 {
		t.Errorf("cache hit should skip enrichment, got calls %v", api.cityCalls)
	}
}

func TestActiveMembersRefetchesStaleCache(t *testing.T) {
	cache := newMockMemberCache()
	cache.entries["s1"] = cacheEntry{
		member:    models.Member{Name: "Stale Asha"},
		updatedAt: time.Now().Add(-25 * time.Hour),
	}

	api := &mockSubscriptionAPI{
		listFunc: func(ctx context.Context, page int) ([]Subscription, error) {
			if page == 1 {
				return []Subscription{sub("s1", "Asha", "live")}, nil
			}
			return nil, nil
		},
		cityFunc: func(ctx context.Context, id string) (string, error) {
			return "Kolkata", nil
		},
	}
	d := newTestDirectory(api, cache)

	members, err := d.ActiveMembers(context.Background())
	if err != nil {
		t.Fatalf("ActiveMembers returned error: %v", err)
	}
	if len(members) != 1 || members[0].City != "Kolkata" {
		t.Errorf("stale entry should be refetched, got %v", members)
	}
	if len(api.cityCalls) != 1 {
		t.Errorf("expected one enrichment call, got %v", api.cityCalls)
	}
}

func TestActiveMembersEvictsDepartedSubscriptions(t *testing.T) {
	cache := newMockMemberCache()
	cache.PutCachedMember(context.Background(), "departed", models.Member{Name: "Gone"})

	api := &mockSubscriptionAPI{
		listFunc: func(ctx context.Context, page int) ([]Subscription, error) {
			if page == 1 {
				return []Subscription{sub("s1", "Asha", "live")}, nil
			}
			return nil, nil
		},
		cityFunc: func(ctx context.Context, id string) (string, error) {
			return "Pune", nil
		},
	}
	d := newTestDirectory(api, cache)

	if _, err := d.ActiveMembers(context.Background()); err != nil {
		t.Fatalf("ActiveMembers returned error: %v", err)
	}
	if len(cache.kept) != 1 || cache.kept[0] != "s1" {
		t.Errorf("expected eviction keep-list [s1], got %v", cache.kept)
	}
	if _, ok := cache.entries["departed"]; ok {
		t.Error("departed subscription still cached after refresh")
	}
}
