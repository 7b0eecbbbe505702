package catalog

import (
	"context"
	"log/slog"

	"leavehub/internal/platform/querycache"
)

// FallbackLabel is used wherever a leave type cannot be resolved.
const FallbackLabel = "Leave"

const (
	listKey        = "leave_types:list"
	MutationChange = "catalog.change"
)

type Service struct {
	store StoreAPI
	cache *querycache.Cache
}

func NewService(store StoreAPI, cache *querycache.Cache) *Service {
	cache.Register(MutationChange,
		func(args ...string) string { return listKey },
		func(args ...string) string { return querycache.Key("leave_type", args[0]) },
	)
	return &Service{store: store, cache: cache}
}

func (s *Service) List(ctx context.Context) ([]LeaveType, error) {
	if cached, ok := s.cache.Get(listKey); ok {
		return cached.([]LeaveType), nil
	}
	types, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(listKey, types)
	return types, nil
}

func (s *Service) Get(ctx context.Context, id string) (LeaveType, error) {
	key := querycache.Key("leave_type", id)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(LeaveType), nil
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return LeaveType{}, err
	}
	s.cache.Set(key, t)
	return t, nil
}

// Label resolves a human-readable label, falling back to a generic one so
// notification text never ends up empty.
func (s *Service) Label(ctx context.Context, id string) string {
	t, err := s.Get(ctx, id)
	if err != nil {
		slog.Warn("leave type label lookup failed", "leaveTypeId", id, "err", err)
		return FallbackLabel
	}
	return t.Label
}

func (s *Service) Create(ctx context.Context, payload LeaveType) (string, error) {
	id, err := s.store.Create(ctx, payload)
	if err != nil {
		return "", err
	}
	s.cache.Invalidate(MutationChange, id)
	return id, nil
}

func (s *Service) Update(ctx context.Context, id string, payload LeaveType) error {
	if err := s.store.Update(ctx, id, payload); err != nil {
		return err
	}
	s.cache.Invalidate(MutationChange, id)
	return nil
}
