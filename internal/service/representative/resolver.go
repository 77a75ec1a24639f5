package representative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/service/postcode"
	"github.com/kapu/dmmymp-go/internal/service/twfy"
	"go.uber.org/zap"
)

type ConstituencyLookup interface {
	LookupConstituency(ctx context.Context, postcode string) (string, error)
}

type MPLookup interface {
	GetMP(ctx context.Context, q twfy.MPQuery) (*twfy.MP, error)
}

// Store caches resolved representatives; the redis CacheService satisfies it.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Resolver maps a postcode to the sitting MP for its constituency.
type Resolver struct {
	postcodes ConstituencyLookup
	mps       MPLookup
	store     Store
	ttl       time.Duration
	logger    *zap.Logger
}

// NewResolver builds a resolver. store may be nil.
func NewResolver(postcodes ConstituencyLookup, mps MPLookup, store Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		postcodes: postcodes,
		mps:       mps,
		store:     store,
		ttl:       constants.CacheTTL.Representative,
		logger:    logger,
	}
}

// Lookup resolves postcode to its representative. Postcode errors from the
// postcode package are returned unwrapped so callers can match them.
func (r *Resolver) Lookup(ctx context.Context, pc string) (*domain.Representative, error) {
	normalized := postcode.Normalize(pc)
	key := constants.CacheKeys.RepresentativePrefix + normalized

	if r.store != nil && normalized != "" {
		var cached domain.Representative
		found, err := r.store.Get(ctx, key, &cached)
		if err != nil {
			r.logger.Warn("Representative cache read failed", zap.String("postcode", normalized), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	constituency, err := r.postcodes.LookupConstituency(ctx, normalized)
	if err != nil {
		return nil, err
	}

	rep, err := r.ByConstituency(ctx, constituency)
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.Set(ctx, key, rep, r.ttl); err != nil {
			r.logger.Warn("Representative cache write failed", zap.String("postcode", normalized), zap.Error(err))
		}
	}

	r.logger.Debug("Representative resolved",
		zap.String("postcode", normalized),
		zap.String("name", rep.Name),
		zap.String("constituency", rep.Constituency),
	)
	return rep, nil
}

// ByConstituency resolves the sitting MP for a constituency name.
func (r *Resolver) ByConstituency(ctx context.Context, constituency string) (*domain.Representative, error) {
	mp, err := r.mps.GetMP(ctx, twfy.MPQuery{Constituency: constituency})
	if err != nil {
		return nil, fmt.Errorf("lookup MP for %s: %w", constituency, err)
	}
	if mp == nil || strings.TrimSpace(mp.FullName) == "" {
		return nil, postcode.ErrNoConstituency
	}

	rep := &domain.Representative{
		Name:         mp.FullName,
		Party:        mp.Party,
		Constituency: constituency,
		PersonID:     mp.Identity().PersonID,
	}
	if mp.Constituency != "" {
		rep.Constituency = mp.Constituency
	}
	return rep, nil
}

// Details renders the representative the way the letter form consumes it.
func Details(rep *domain.Representative) string {
	return fmt.Sprintf("name: %s\nparty: %s\nconstituency: %s", rep.Name, rep.Party, rep.Constituency)
}
