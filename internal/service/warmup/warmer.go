package warmup

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type ConstituencySource interface {
	TopConstituencies(ctx context.Context, n int) ([]string, error)
}

type RepresentativeLookup interface {
	ByConstituency(ctx context.Context, constituency string) (*domain.Representative, error)
}

type ProfileRefresher interface {
	Refresh(ctx context.Context, name, constituency string) (*domain.EngagementProfile, error)
}

// Report summarises one warm-up run.
type Report struct {
	Attempted int
	Warmed    int
	Failed    int
	Duration  time.Duration
}

// Warmer pre-computes profiles for the constituencies constituents write
// about most, so the first visitor after a cache expiry is not kept waiting.
type Warmer struct {
	constituencies ConstituencySource
	reps           RepresentativeLookup
	profiles       ProfileRefresher
	topN           int
	logger         *zap.Logger

	cron *cron.Cron
}

func NewWarmer(constituencies ConstituencySource, reps RepresentativeLookup, profiles ProfileRefresher, topN int, logger *zap.Logger) *Warmer {
	if topN <= 0 {
		topN = 20
	}
	return &Warmer{
		constituencies: constituencies,
		reps:           reps,
		profiles:       profiles,
		topN:           topN,
		logger:         logger,
	}
}

// Run warms up to topN profiles. Individual failures are logged and counted;
// only a failure to list constituencies is returned.
func (w *Warmer) Run(ctx context.Context) (Report, error) {
	started := time.Now()

	names, err := w.constituencies.TopConstituencies(ctx, w.topN)
	if err != nil {
		return Report{}, fmt.Errorf("list constituencies: %w", err)
	}

	var warmed, failed atomic.Int64
	p := pool.New().WithContext(ctx).WithMaxGoroutines(constants.WarmupConfig.MaxConcurrency)
	for _, constituency := range names {
		p.Go(func(ctx context.Context) error {
			if err := w.warmOne(ctx, constituency); err != nil {
				failed.Add(1)
				w.logger.Warn("Profile warm-up failed",
					zap.String("constituency", constituency),
					zap.Error(err),
				)
				return nil
			}
			warmed.Add(1)
			return nil
		})
	}
	_ = p.Wait()

	report := Report{
		Attempted: len(names),
		Warmed:    int(warmed.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(started),
	}
	w.logger.Info("Profile warm-up finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("warmed", report.Warmed),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, ctx.Err()
}

func (w *Warmer) warmOne(ctx context.Context, constituency string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.WarmupConfig.PerProfile)
	defer cancel()

	rep, err := w.reps.ByConstituency(ctx, constituency)
	if err != nil {
		return err
	}
	_, err = w.profiles.Refresh(ctx, rep.Name, rep.Constituency)
	return err
}

// Schedule registers Run on a cron spec (standard five fields, London time)
// and starts the scheduler. Overlapping runs are skipped.
func (w *Warmer) Schedule(ctx context.Context, spec string) error {
	cl := cronLogger{logger: w.logger.Sugar()}
	w.cron = cron.New(
		cron.WithLocation(util.London()),
		cron.WithLogger(cl),
		cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		),
	)

	entryID, err := w.cron.AddFunc(spec, func() {
		if _, err := w.Run(ctx); err != nil {
			w.logger.Error("Scheduled warm-up failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule warm-up %q: %w", spec, err)
	}

	w.cron.Start()
	w.logger.Info("Profile warm-up scheduled",
		zap.String("spec", spec),
		zap.Int("entry_id", int(entryID)),
		zap.Int("top_n", w.topN),
	)
	return nil
}

// Stop halts the scheduler and waits for a running job, bounded by ctx.
func (w *Warmer) Stop(ctx context.Context) {
	if w.cron == nil {
		return
	}
	done := w.cron.Stop()
	select {
	case <-done.Done():
		w.logger.Info("Warm-up scheduler stopped")
	case <-ctx.Done():
		w.logger.Warn("Warm-up scheduler stop timed out")
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
