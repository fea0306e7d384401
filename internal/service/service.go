// Package service holds the business rules between the HTTP layer and the
// store. It validates input, enforces role checks and shapes the audit trail;
// atomicity is delegated to the store.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"cafepos/backend/internal/cache"
	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

// ErrForbidden marks role failures; distinct from validation so the HTTP
// layer can answer 403 instead of 400.
var ErrForbidden = fmt.Errorf("forbidden")

type Service struct {
	repo     store.Repository
	logger   zerolog.Logger
	validate *validator.Validate

	analyticsCache cache.AnalyticsCache
	analyticsTTL   time.Duration

	now func() time.Time
}

type Option func(*Service)

// WithAnalyticsCache enables the read-through cache for analytics rollups.
func WithAnalyticsCache(c cache.AnalyticsCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.analyticsCache = c
		s.analyticsTTL = ttl
	}
}

// WithClock fixes the service clock, used by tests for deterministic stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(repo store.Repository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		logger:         logger,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		analyticsCache: cache.NoopAnalyticsCache{},
		analyticsTTL:   30 * time.Second,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type actorKey struct{}

// WithActor attaches the authenticated actor to the context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

func (s *Service) requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, fmt.Errorf("%w: no authenticated actor", ErrForbidden)
	}
	return actor, nil
}

func (s *Service) requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if !actor.IsAdmin() {
		return domain.Actor{}, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return actor, nil
}

func (s *Service) requireSuperAdmin(ctx context.Context) (domain.Actor, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if actor.Role != domain.RoleSuperAdmin {
		return domain.Actor{}, fmt.Errorf("%w: super admin role required", ErrForbidden)
	}
	return actor, nil
}

func (s *Service) validateStruct(req any) error {
	if err := s.validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("%w: field %q fails rule %q", store.ErrValidation, first.Field(), first.Tag())
		}
		return fmt.Errorf("%w: %v", store.ErrValidation, err)
	}
	return nil
}

func actorIDPtr(actor domain.Actor) *int64 {
	if actor.UserID == 0 {
		return nil
	}
	id := actor.UserID
	return &id
}
