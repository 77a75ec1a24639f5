// Command warm_profiles pre-computes engagement profiles once, either for the
// most-written-to constituencies or for an explicit MP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kapu/dmmymp-go/internal/app"
	"github.com/kapu/dmmymp-go/internal/config"
	"github.com/kapu/dmmymp-go/internal/util"
	"go.uber.org/zap"
)

func main() {
	name := flag.String("name", "", "MP display name (requires -constituency)")
	constituency := flag.String("constituency", "", "constituency name")
	top := flag.Int("top", 0, "number of constituencies to warm (default WARMUP_TOP_N)")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *top > 0 {
		cfg.Warmup.TopN = *top
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	if *name != "" || *constituency != "" {
		if *name == "" || *constituency == "" {
			logger.Error("Both -name and -constituency are required")
			os.Exit(2)
		}
		profile, err := container.Profiles.Refresh(ctx, *name, *constituency)
		if err != nil {
			logger.Error("Profile derivation failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Profile warmed",
			zap.String("name", profile.ProfileSummary.FullName),
			zap.String("constituency", profile.ProfileSummary.Constituency),
			zap.Int("voting_topics", len(profile.TopVotingTopics)),
		)
		return
	}

	report, err := container.Warmer.Run(ctx)
	if err != nil {
		logger.Error("Warm-up failed", zap.Error(err))
		os.Exit(1)
	}
	if report.Failed > 0 {
		os.Exit(1)
	}
}
