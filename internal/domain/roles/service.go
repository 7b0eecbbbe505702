package roles

import (
	"context"
	"errors"

	"leavehub/internal/platform/querycache"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("admin role required")
	ErrInvalidRole     = errors.New("invalid role")
)

const (
	listKey        = "roles:list"
	MutationUpdate = "roles.update"
)

type Service struct {
	store StoreAPI
	cache *querycache.Cache
}

func NewService(store StoreAPI, cache *querycache.Cache) *Service {
	cache.Register(MutationUpdate,
		func(args ...string) string { return listKey },
		func(args ...string) string { return querycache.Key("role", "current", args[0]) },
	)
	return &Service{store: store, cache: cache}
}

// Current resolves the caller's role. A missing row is the valid default
// role; any other failure surfaces, it is never silently defaulted.
func (s *Service) Current(ctx context.Context, userID string) (string, error) {
	key := querycache.Key("role", "current", userID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(string), nil
	}

	role, err := s.store.GetRole(ctx, userID)
	if errors.Is(err, ErrNoRole) {
		role = RoleUser
	} else if err != nil {
		return "", err
	}

	s.cache.Set(key, role)
	return role, nil
}

func (s *Service) requireAdmin(ctx context.Context, callerID string) error {
	if callerID == "" {
		return ErrUnauthenticated
	}
	role, err := s.Current(ctx, callerID)
	if err != nil {
		return err
	}
	if role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// ListUsers is admin-gated; users without a role row list as the default.
func (s *Service) ListUsers(ctx context.Context, callerID string) ([]UserWithRole, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(listKey); ok {
		return cached.([]UserWithRole), nil
	}
	users, err := s.store.ListUsersWithRoles(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(listKey, users)
	return users, nil
}

// Update upserts the target user's role and evicts the cached views that
// depend on it, so subsequent reads reflect the change without a reload.
func (s *Service) Update(ctx context.Context, callerID, userID, role string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if !ValidRole(role) {
		return ErrInvalidRole
	}

	if err := s.store.UpsertRole(ctx, userID, role, callerID); err != nil {
		return err
	}
	s.cache.Invalidate(MutationUpdate, userID)
	return nil
}
