package balance

import (
	"context"
	"strconv"
	"sync"

	"leavehub/internal/domain/catalog"
	"leavehub/internal/platform/querycache"
)

const MutationBook = "balance.book"

type Service struct {
	store   StoreAPI
	catalog *catalog.Service
	cache   *querycache.Cache

	mu       sync.Mutex
	triggers map[string]string
}

func NewService(store StoreAPI, catalogSvc *catalog.Service, cache *querycache.Cache) *Service {
	cache.Register(MutationBook, func(args ...string) string {
		return querycache.Key("balance", args...)
	})
	// Cached balances embed catalog facts (unlimited, canApply), so a leave
	// type change evicts every balance derived from that type.
	cache.RegisterPrefix(catalog.MutationChange, func(args ...string) string {
		return querycache.Key("balance", args[0]) + ":"
	})
	return &Service{
		store:    store,
		catalog:  catalogSvc,
		cache:    cache,
		triggers: make(map[string]string),
	}
}

// Balance keys lead with the leave type so a catalog change can evict by
// prefix.
func cacheKey(userID, leaveTypeID string, year int) string {
	return querycache.Key("balance", leaveTypeID, userID, strconv.Itoa(year))
}

// Get derives the balance for one (user, type, year). refreshTrigger is an
// opaque value: a changed trigger forces a refetch, and when refetches
// overlap only the most recently requested trigger may install its result
// (stale responses never clobber a newer request's output).
func (s *Service) Get(ctx context.Context, userID, leaveTypeID string, year int, refreshTrigger string) (Balance, error) {
	key := cacheKey(userID, leaveTypeID, year)

	s.mu.Lock()
	if cached, ok := s.cache.Get(key); ok && s.triggers[key] == refreshTrigger {
		s.mu.Unlock()
		return cached.(Balance), nil
	}
	s.triggers[key] = refreshTrigger
	s.mu.Unlock()

	derived, err := s.fetch(ctx, userID, leaveTypeID, year)
	if err != nil {
		return Balance{}, err
	}

	s.mu.Lock()
	if s.triggers[key] == refreshTrigger {
		s.cache.Set(key, derived)
	}
	s.mu.Unlock()
	return derived, nil
}

func (s *Service) fetch(ctx context.Context, userID, leaveTypeID string, year int) (Balance, error) {
	leaveType, err := s.catalog.Get(ctx, leaveTypeID)
	if err != nil {
		return Balance{}, err
	}

	allocated, used, err := s.store.GetAllocation(ctx, userID, leaveTypeID, year)
	if err != nil {
		return Balance{}, err
	}

	available := allocated - used
	if available < 0 {
		available = 0
	}

	return Balance{
		UserID:      userID,
		LeaveTypeID: leaveTypeID,
		Year:        year,
		Allocated:   allocated,
		Used:        used,
		Available:   available,
		CanApply:    available > 0 || leaveType.Unlimited(),
		Unlimited:   leaveType.Unlimited(),
	}, nil
}

// GetAdditionalWFH returns nil unless the variant balance is unlocked;
// absence is the contract, not a zeroed struct.
func (s *Service) GetAdditionalWFH(ctx context.Context, userID string) (*AdditionalWFH, error) {
	wfh, present, err := s.store.GetAdditionalWFH(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !present || !wfh.CanApply {
		return nil, nil
	}
	return &wfh, nil
}

// BookUsage records approved days against the balance and invalidates the
// dependent cache entry.
func (s *Service) BookUsage(ctx context.Context, userID, leaveTypeID string, year int, days float64) error {
	if err := s.store.BookUsage(ctx, userID, leaveTypeID, year, days); err != nil {
		return err
	}
	s.cache.Invalidate(MutationBook, leaveTypeID, userID, strconv.Itoa(year))
	return nil
}
