package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/cobra"

	"github.com/djdv/go-depot"
	"github.com/djdv/go-depot/objectcache"
)

type (
	simConfig struct {
		Workers      int   `json:"workers"`
		Ops          int   `json:"ops"`
		Capacity     int   `json:"capacity"`
		MaxMagazines int   `json:"max_magazines"`
		Blocks       int   `json:"blocks"`
		Keys         int   `json:"keys"`
		BlockSize    int   `json:"block_size"`
		Seed         int64 `json:"seed"`
		Spin         bool  `json:"spin"`
	}
	simReport struct {
		Config      simConfig     `json:"config"`
		Elapsed     time.Duration `json:"elapsed_ns"`
		BlockHits   uint64        `json:"block_hits"`
		BlockMisses uint64        `json:"block_misses"`
		Constructed uint64        `json:"constructed"`
		Destructed  uint64        `json:"destructed"`
		Depot       depot.Stats   `json:"depot"`
	}
	buffer struct {
		key  int
		data []byte
	}
)

func init() {
	var (
		config = defaultSimConfig()
		cmd    = &cobra.Command{
			Use:   "run",
			Short: "Run the block cache workload",
			Long: `The run command starts a number of workers that look up random block keys
in a shared LRU cache. Missing blocks are filled with buffers from an object
cache backed by a magazine depot, and evicted blocks return their buffers.

Example:
  depotsim run --workers 8 --ops 100000
  depotsim run --capacity 4 --max-magazines 2 --json`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSim(cmd.Context(), cmd.OutOrStdout(), config)
			},
		}
		flags = cmd.Flags()
	)
	flags.IntVarP(&config.Workers, "workers", "w", config.Workers, "Concurrent workers")
	flags.IntVarP(&config.Ops, "ops", "n", config.Ops, "Lookups per worker")
	flags.IntVar(&config.Capacity, "capacity", config.Capacity, "Objects per magazine")
	flags.IntVar(&config.MaxMagazines, "max-magazines", config.MaxMagazines, "Magazines retained by the depot")
	flags.IntVar(&config.Blocks, "blocks", config.Blocks, "LRU block cache size")
	flags.IntVar(&config.Keys, "keys", config.Keys, "Distinct block keys")
	flags.IntVar(&config.BlockSize, "block-size", config.BlockSize, "Bytes per buffer")
	flags.Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	flags.BoolVar(&config.Spin, "spin", config.Spin, "Use spin locks for CPU stores")
	rootCmd.AddCommand(cmd)
}

func defaultSimConfig() *simConfig {
	defaults := objectcache.DefaultConfig()
	return &simConfig{
		Workers:      4,
		Ops:          100_000,
		Capacity:     defaults.MagazineCapacity,
		MaxMagazines: defaults.MaxMagazines,
		Blocks:       1024,
		Keys:         4096,
		BlockSize:    4096,
		Seed:         1,
	}
}

func (c *simConfig) validate() error {
	for _, check := range []struct {
		name  string
		value int
	}{
		{"workers", c.Workers},
		{"ops", c.Ops},
		{"blocks", c.Blocks},
		{"keys", c.Keys},
		{"block-size", c.BlockSize},
	} {
		if check.value < 1 {
			return fmt.Errorf("--%s must be >=1 but %d was given",
				check.name, check.value)
		}
	}
	return nil
}

func runSim(ctx context.Context, w io.Writer, config *simConfig) error {
	report, err := simulate(ctx, *config, newLogger())
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(w, report)
	}
	return report.print(w)
}

func simulate(ctx context.Context, config simConfig, logger *slog.Logger) (*simReport, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	var flags depot.Flags
	if config.Spin {
		flags |= depot.FlagSpinLock
	}
	cache, err := objectcache.New(
		func() (*buffer, error) {
			return &buffer{data: make([]byte, config.BlockSize)}, nil
		},
		nil,
		objectcache.Config{
			MagazineCapacity: config.Capacity,
			MaxMagazines:     config.MaxMagazines,
			Flags:            flags,
		},
		depot.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	blocks, err := lru.NewWithEvict(config.Blocks,
		func(_ int, evicted *buffer) { cache.Put(evicted) },
	)
	if err != nil {
		return nil, fmt.Errorf("block cache: %w", err)
	}
	var (
		hits, misses atomic.Uint64
		workerErrs   = make([]error, config.Workers)
		wg           sync.WaitGroup
		start        = time.Now()
	)
	logger.Info("simulation started", "workers", config.Workers, "ops", config.Ops)
	for worker := range config.Workers {
		rng := rand.New(rand.NewSource(config.Seed + int64(worker)))
		wg.Go(func() {
			workerErrs[worker] = lookupBlocks(ctx, rng, config,
				blocks, cache, &hits, &misses)
		})
	}
	wg.Wait()
	elapsed := time.Since(start)
	blocks.Purge()
	cache.Close()
	for _, err := range workerErrs {
		if err != nil {
			return nil, err
		}
	}
	stats := cache.Stats()
	logger.Info("simulation finished",
		"elapsed", elapsed,
		"depot", stats.Depot,
	)
	return &simReport{
		Config:      config,
		Elapsed:     elapsed,
		BlockHits:   hits.Load(),
		BlockMisses: misses.Load(),
		Constructed: stats.Constructed,
		Destructed:  stats.Destructed,
		Depot:       stats.Depot,
	}, nil
}

func lookupBlocks(
	ctx context.Context, rng *rand.Rand, config simConfig,
	blocks *lru.Cache[int, *buffer], cache *objectcache.Cache[*buffer],
	hits, misses *atomic.Uint64,
) error {
	const checkEvery = 1024
	for op := range config.Ops {
		if op%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		key := rng.Intn(config.Keys)
		if _, ok := blocks.Get(key); ok {
			hits.Add(1)
			continue
		}
		misses.Add(1)
		buf, err := cache.Get()
		if err != nil {
			return err
		}
		buf.key = key
		buf.data[0] = byte(key)
		if present, _ := blocks.ContainsOrAdd(key, buf); present {
			cache.Put(buf) // Another worker filled it first.
		}
	}
	return nil
}

func (r *simReport) print(w io.Writer) error {
	var (
		lookups = r.BlockHits + r.BlockMisses
		hitRate float64
	)
	if lookups > 0 {
		hitRate = float64(r.BlockHits) / float64(lookups) * 100.0
	}
	balance := "balanced"
	if r.Constructed != r.Destructed {
		balance = fmt.Sprintf("LEAKED %d", r.Constructed-r.Destructed)
	}
	_, err := fmt.Fprintf(w,
		"workers: %d, lookups: %d, elapsed: %s\n"+
			"block cache: %.1f%% hits\n"+
			"depot: %.1f%% hits, %d stored, %d overflowed, %d drained\n"+
			"magazines: %d allocated, %d freed, %d refusals, %d lock acquisitions\n"+
			"buffers: %d constructed, %d destructed (%s)\n",
		r.Config.Workers, lookups, r.Elapsed,
		hitRate,
		r.Depot.HitRate(), r.Depot.Stored, r.Depot.Overflows, r.Depot.Drained,
		r.Depot.Allocated, r.Depot.Freed, r.Depot.Refusals, r.Depot.LockAcquisitions,
		r.Constructed, r.Destructed, balance,
	)
	return err
}
