package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"membership-portal/errors"
	"membership-portal/logger"
	"membership-portal/models"
)

// SubscriptionAPI is the slice of the billing API the directory needs.
type SubscriptionAPI interface {
	ListSubscriptions(ctx context.Context, page int) ([]Subscription, error)
	SubscriptionCity(ctx context.Context, subscriptionID string) (string, error)
}

// MemberCache stores enriched member summaries keyed by subscription
// id. Implementations treat entries older than the TTL as absent.
type MemberCache interface {
	GetCachedMember(ctx context.Context, subscriptionID string, ttl time.Duration) (*models.Member, bool, error)
	PutCachedMember(ctx context.Context, subscriptionID string, m models.Member) error
	EvictCachedMembersExcept(ctx context.Context, keep []string) error
}

// DirectoryService rebuilds the flattened membership directory from
// the billing API. Best-effort: a partial list on partial upstream
// failure is acceptable.
type DirectoryService struct {
	api   SubscriptionAPI
	cache MemberCache
	log   *logger.Logger

	// BatchSize bounds concurrent city lookups; BatchPause is the gap
	// between batches, keeping the refresh under upstream rate limits.
	BatchSize  int
	BatchPause time.Duration
	// MaxPages is the infinite-loop guard on pagination.
	MaxPages int
	CacheTTL time.Duration
}

// NewDirectoryService wires the directory with its defaults. cache may
// be nil; every refresh then hits the billing API for enrichment.
func NewDirectoryService(api SubscriptionAPI, cache MemberCache, log *logger.Logger) *DirectoryService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &DirectoryService{
		api:        api,
		cache:      cache,
		log:        log,
		BatchSize:  10,
		BatchPause: 500 * time.Millisecond,
		MaxPages:   50,
		CacheTTL:   24 * time.Hour,
	}
}

// ActiveMembers paginates the billing API, keeps live subscriptions,
// and enriches each with a cached city lookup.
func (d *DirectoryService) ActiveMembers(ctx context.Context) ([]models.Member, error) {
	var live []Subscription

	for page := 1; page <= d.MaxPages; page++ {
		subs, err := d.api.ListSubscriptions(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, errors.E(errors.Upstream, "error listing subscriptions", err)
			}
			// Later pages failing still leave a usable partial list.
			d.log.Warn("Subscription page %d failed, returning partial list: %v", page, err)
			break
		}
		if len(subs) == 0 {
			break
		}
		for _, sub := range subs {
			if strings.EqualFold(sub.Status, "live") {
				live = append(live, sub)
			}
		}
	}

	members, dropped := d.enrich(ctx, live)

	if d.cache != nil {
		keep := make([]string, 0, len(live))
		for _, sub := range live {
			keep = append(keep, sub.SubscriptionID)
		}
		if err := d.cache.EvictCachedMembersExcept(ctx, keep); err != nil {
			d.log.Warn("Cache eviction failed: %v", err)
		}
	}

	if dropped > 0 {
		d.log.Warn("Dropped %d member(s) after failed enrichment", dropped)
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

// enrich resolves a city for each live subscription, via the cache
// where fresh, otherwise from the API in fixed-size concurrent batches
// with a pause in between. A failed lookup drops that subscription
// only.
func (d *DirectoryService) enrich(ctx context.Context, live []Subscription) ([]models.Member, int) {
	resolved := make(map[string]models.Member, len(live))
	var misses []Subscription

	for _, sub := range live {
		if d.cache != nil {
			if m, ok, err := d.cache.GetCachedMember(ctx, sub.SubscriptionID, d.CacheTTL); err == nil && ok {
				resolved[sub.SubscriptionID] = *m
				continue
			} else if err != nil {
				d.log.Warn("Cache read failed for %s: %v", sub.SubscriptionID, err)
			}
		}
		misses = append(misses, sub)
	}

	batch := d.BatchSize
	if batch <= 0 {
		batch = 10
	}

	var mu sync.Mutex
	failed := 0

	for start := 0; start < len(misses); start += batch {
		end := start + batch
		if end > len(misses) {
			end = len(misses)
		}

		var wg sync.WaitGroup
		for _, sub := range misses[start:end] {
			wg.Add(1)
			go func(sub Subscription) {
				defer wg.Done()

				city, err := d.api.SubscriptionCity(ctx, sub.SubscriptionID)
				if err != nil {
					d.log.Warn("City lookup failed for %s: %v", sub.SubscriptionID, err)
					mu.Lock()
					failed++
					mu.Unlock()
					return
				}

				m := memberFromSubscription(sub, city)
				mu.Lock()
				resolved[sub.SubscriptionID] = m
				mu.Unlock()

				if d.cache != nil {
					if err := d.cache.PutCachedMember(ctx, sub.SubscriptionID, m); err != nil {
						d.log.Warn("Cache write failed for %s: %v", sub.SubscriptionID, err)
					}
				}
			}(sub)
		}
		wg.Wait()

		if end < len(misses) && d.BatchPause > 0 {
			time.Sleep(d.BatchPause)
		}
	}

	// Assemble in list order so the directory is stable across refreshes.
	var members []models.Member
	for _, sub := range live {
		if m, ok := resolved[sub.SubscriptionID]; ok {
			members = append(members, m)
		}
	}
	return members, failed
}

func memberFromSubscription(sub Subscription, city string) models.Member {
	name := sub.CustomerName
	if name == "" {
		name = "Unknown"
	}
	email := sub.Email
	if email == "" {
		email = "N/A"
	}
	membership := sub.PlanName
	if membership == "" {
		membership = "N/A"
	}
	return models.Member{
		Name:       name,
		Email:      email,
		Membership: membership,
		Validity:   sub.CurrentTermEndsAt,
		City:       city,
	}
}
