package stats

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/util"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Deriver computes a fresh profile.
type Deriver interface {
	Derive(ctx context.Context, name, constituency string) (*domain.EngagementProfile, error)
}

// Store is the shared second-level cache.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Options struct {
	TTL       time.Duration
	LocalSize int
	LocalTTL  time.Duration
	// DeriveTimeout bounds a shared derivation, which outlives any one caller.
	DeriveTimeout time.Duration
}

// Service serves engagement profiles from an in-process LRU, then the shared
// store, then a fresh derivation. Concurrent misses for the same MP share one
// derivation, which runs detached from any single caller's cancellation.
// Returned profiles are shared and must not be modified.
type Service struct {
	deriver       Deriver
	store         Store
	local         *expirable.LRU[string, *domain.EngagementProfile]
	ttl           time.Duration
	deriveTimeout time.Duration
	group         singleflight.Group
	logger        *zap.Logger
}

// NewService builds the cache stack. store may be nil to run without redis.
func NewService(deriver Deriver, store Store, opts Options, logger *zap.Logger) *Service {
	if opts.TTL <= 0 {
		opts.TTL = constants.CacheTTL.Profile
	}
	if opts.LocalSize <= 0 {
		opts.LocalSize = 256
	}
	if opts.LocalTTL <= 0 || opts.LocalTTL > opts.TTL {
		opts.LocalTTL = opts.TTL
	}
	if opts.DeriveTimeout <= 0 {
		opts.DeriveTimeout = constants.ProfileDerivation.Timeout
	}

	return &Service{
		deriver:       deriver,
		store:         store,
		local:         expirable.NewLRU[string, *domain.EngagementProfile](opts.LocalSize, nil, opts.LocalTTL),
		ttl:           opts.TTL,
		deriveTimeout: opts.DeriveTimeout,
		logger:        logger,
	}
}

// Key is the cache key for an MP.
func Key(name, constituency string) string {
	return constants.CacheKeys.ProfilePrefix + util.Normalize(name) + "|" + util.Normalize(constituency)
}

func (s *Service) Get(ctx context.Context, name, constituency string) (*domain.EngagementProfile, error) {
	key := Key(name, constituency)

	if profile, ok := s.local.Get(key); ok {
		return profile, nil
	}

	if s.store != nil {
		var cached domain.EngagementProfile
		found, err := s.store.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Profile store read failed, deriving", zap.String("key", key), zap.Error(err))
		} else if found {
			s.local.Add(key, &cached)
			return &cached, nil
		}
	}

	return s.derive(ctx, key, name, constituency)
}

// Refresh derives a profile regardless of cached state and stores it.
func (s *Service) Refresh(ctx context.Context, name, constituency string) (*domain.EngagementProfile, error) {
	return s.derive(ctx, Key(name, constituency), name, constituency)
}

func (s *Service) derive(ctx context.Context, key, name, constituency string) (*domain.EngagementProfile, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deriveTimeout)
		defer cancel()

		start := time.Now()
		profile, err := s.deriver.Derive(dctx, name, constituency)
		if err != nil {
			return nil, err
		}

		s.local.Add(key, profile)
		if s.store != nil {
			if err := s.store.Set(dctx, key, profile, s.ttl); err != nil {
				s.logger.Warn("Profile store write failed", zap.String("key", key), zap.Error(err))
			}
		}

		s.logger.Info("Engagement profile derived",
			zap.String("name", name),
			zap.String("constituency", constituency),
			zap.Duration("took", time.Since(start)),
		)
		return profile, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Profile derivation shared", zap.String("key", key))
		}
		return res.Val.(*domain.EngagementProfile), nil
	}
}

// Invalidate drops the in-process entry for an MP.
func (s *Service) Invalidate(name, constituency string) {
	s.local.Remove(Key(name, constituency))
}
