package letters

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository stores and aggregates anonymized letter metadata.
type Repository struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
	now       func() time.Time
	logger    *zap.Logger
}

func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:        db,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
		logger:    logger,
	}
}

// Migrate creates or updates the letters table.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&domain.Letter{}); err != nil {
		return fmt.Errorf("migrate letters: %w", err)
	}
	return nil
}

// BuildLetter turns a submission into the stored record.
func (r *Repository) BuildLetter(sub domain.LetterSubmission) (*domain.Letter, error) {
	postcode := strings.ToUpper(strings.TrimSpace(sub.Postcode))
	if postcode == "" {
		return nil, errors.NewValidationError("postcode is required", "postcode", sub.Postcode)
	}
	if strings.TrimSpace(sub.Issue) == "" {
		return nil, errors.NewValidationError("issue is required", "issue", sub.Issue)
	}
	if strings.TrimSpace(sub.Problem) == "" {
		return nil, errors.NewValidationError("problem is required", "problem", "")
	}
	if strings.TrimSpace(sub.Constituency) == "" {
		return nil, errors.NewValidationError("constituency is required", "constituency", sub.Constituency)
	}

	letter := &domain.Letter{
		Postcode:     postcode,
		Issue:        strings.Split(sub.Issue, constants.LetterLimits.IssueLabelSeparator)[0],
		ProblemShort: r.summarize(sub.Problem),
		Constituency: strings.TrimSpace(sub.Constituency),
		SentAt:       r.now().UTC(),
	}
	if sub.Issue == constants.LetterLimits.OtherIssueLabel && strings.TrimSpace(sub.CustomIssue) != "" {
		custom := r.summarize(sub.CustomIssue)
		letter.CustomIssue = &custom
	}
	if strings.TrimSpace(sub.Solution) != "" {
		solution := r.summarize(sub.Solution)
		letter.SolutionShort = &solution
	}
	return letter, nil
}

func (r *Repository) summarize(text string) string {
	clean := strings.TrimSpace(html.UnescapeString(r.sanitizer.Sanitize(text)))
	return util.Summarize(clean, constants.LetterLimits.SummaryLength)
}

// Insert records one sent letter.
func (r *Repository) Insert(ctx context.Context, sub domain.LetterSubmission) error {
	letter, err := r.BuildLetter(sub)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(letter).Error; err != nil {
		r.logger.Error("Failed to save letter", zap.String("constituency", letter.Constituency), zap.Error(err))
		return errors.NewServiceError("failed to save engagement data", "letters", "insert", err)
	}

	r.logger.Info("Letter recorded",
		zap.String("issue", letter.Issue),
		zap.String("constituency", letter.Constituency),
	)
	return nil
}

// Engagement runs the dashboard aggregates concurrently.
func (r *Repository) Engagement(ctx context.Context) (*domain.EngagementStats, error) {
	stats := &domain.EngagementStats{
		TopIssues:      []domain.IssueCount{},
		ByConstituency: []domain.ConstituencyCount{},
		TopPostcodes:   []domain.PostcodeCount{},
		RecentLetters:  []domain.Letter{},
	}
	limits := constants.LetterLimits

	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(3)

	p.Go(func(ctx context.Context) error {
		return r.db.WithContext(ctx).Model(&domain.Letter{}).Count(&stats.TotalLetters).Error
	})
	p.Go(func(ctx context.Context) error {
		return r.db.WithContext(ctx).Model(&domain.Letter{}).
			Select("issue, count(*) AS count").
			Group("issue").Order("count DESC, issue").Limit(limits.TopIssues).
			Scan(&stats.TopIssues).Error
	})
	p.Go(func(ctx context.Context) error {
		return r.db.WithContext(ctx).Model(&domain.Letter{}).
			Select("constituency, count(*) AS count").
			Group("constituency").Order("count DESC, constituency").
			Scan(&stats.ByConstituency).Error
	})
	p.Go(func(ctx context.Context) error {
		return r.db.WithContext(ctx).Model(&domain.Letter{}).
			Select("postcode, count(*) AS count").
			Group("postcode").Order("count DESC, postcode").Limit(limits.TopPostcodes).
			Scan(&stats.TopPostcodes).Error
	})
	p.Go(func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Order("sent_at DESC, id DESC").Limit(limits.RecentLetters).
			Find(&stats.RecentLetters).Error
	})

	if err := p.Wait(); err != nil {
		r.logger.Error("Failed to fetch engagement data", zap.Error(err))
		return nil, errors.NewServiceError("failed to fetch engagement data", "letters", "engagement", err)
	}
	return stats, nil
}

// TopConstituencies returns the n constituencies with the most letters.
func (r *Repository) TopConstituencies(ctx context.Context, n int) ([]string, error) {
	var rows []domain.ConstituencyCount
	err := r.db.WithContext(ctx).Model(&domain.Letter{}).
		Select("constituency, count(*) AS count").
		Group("constituency").Order("count DESC, constituency").Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.NewServiceError("failed to list constituencies", "letters", "top_constituencies", err)
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Constituency)
	}
	return out, nil
}
