package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/tinyecs/internal/logging"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	runID := uuid.New()
	logger = logger.With(zap.Stringer("run_id", runID))

	logger.Info("starting ECS stress test",
		zap.Duration("duration", cfg.Duration),
		zap.Int("entities", cfg.Entities),
		zap.Int("shards", cfg.Shards),
		zap.Int64("seed", cfg.Seed))

	report, err := run(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("stress test failed", zap.Error(err))
	}
	report.RunID = runID.String()

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("failed to generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")

	logger.Info("stress test complete")
}

// run drives one workload per shard, each on its own Storage, until
// cfg.Duration has passed.
func run(ctx context.Context, cfg *Config, logger *zap.Logger) (*Report, error) {
	report := &Report{
		Duration:       cfg.Duration,
		Entities:       cfg.Entities,
		Shards:         cfg.Shards,
		OpsPerFrame:    cfg.OpsPerFrame,
		Seed:           cfg.Seed,
		GCPauseMetrics: cfg.GCPauseMetrics,
	}

	workloads := make([]*Workload, cfg.Shards)
	for i := range workloads {
		shardLogger := logger.With(zap.Int("shard", i))
		workloads[i] = NewWorkload(i, cfg.Seed+int64(i), cfg.OpsPerFrame, shardLogger)
		if err := workloads[i].Populate(cfg.Entities); err != nil {
			return nil, fmt.Errorf("populate shard %d: %w", i, err)
		}
	}
	logger.Info("population complete")

	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	results := make([]ShardResult, cfg.Shards)
	g, ctx := errgroup.WithContext(ctx)
	startTime := time.Now()
	for i, w := range workloads {
		g.Go(func() error {
			result, err := w.Run(ctx)
			results[i] = result
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.TotalTime = time.Since(startTime)
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.addResults(results)
	return report, nil
}
