package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/pipeline"
	"github.com/theirongolddev/burnline/internal/source"
	"github.com/theirongolddev/burnline/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagAggregate   bool
	flagNoAggregate bool
	flagDelimiter   string
	flagContract    string
	flagOverdue     bool
	flagPoints      int
	flagNoCache     bool
	flagQuiet       bool
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "burnline [paths...]",
	Short: "Contract burn trajectories from budget snapshots",
	Long: "Analyze periodic contract budget snapshots: % time elapsed vs % complete,\n" +
		"parent/child aggregation and linear trajectory predictions.\n" +
		"Paths may be CSV files or directories; the current directory is used by default.",
	Args:         cobra.ArbitraryArgs,
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	pf.BoolVar(&flagAggregate, "aggregate", false, "Fold child contracts into their parent")
	pf.BoolVar(&flagNoAggregate, "no-aggregate", false, "Analyze child contracts on their own")
	pf.StringVar(&flagDelimiter, "delimiter", "", "Parent/child delimiter in contract ids (empty string disables)")
	pf.StringVarP(&flagContract, "contract", "k", "", "Filter to contracts (substring match)")
	pf.BoolVar(&flagOverdue, "overdue", false, "Only contracts past their end date")
	pf.IntVar(&flagPoints, "points", 0, "Resample points per smoothed curve")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output and warnings")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("aggregate", "no-aggregate")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
}

// dataset is everything a command needs after loading.
type dataset struct {
	cfg    config.Config
	load   *pipeline.LoadResult
	result *pipeline.Result
}

// loadConfig reads the config file and applies the command-line overrides
// set on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	switch {
	case flagAggregate:
		cfg.Analysis.Aggregate = true
	case flagNoAggregate:
		cfg.Analysis.Aggregate = false
	}
	if flags.Changed("delimiter") {
		cfg.Input.Delimiter = flagDelimiter
	}
	if flags.Changed("points") {
		cfg.Analysis.ResamplePoints = flagPoints
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case flagVerbose:
		level = slog.LevelDebug
	case flagQuiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadData is the shared loading and analysis path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData(cmd *cobra.Command, paths []string) (*dataset, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := source.ScanPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("scanning inputs: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no CSV files found")
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %d files...\n", len(files))
	}

	load, err := loadSnapshots(files, source.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, err
	}

	res := pipeline.Run(load.Snapshots, pipeline.OptionsFromConfig(cfg, logger))
	res = pipeline.FilterByContract(res, flagContract)
	if flagOverdue {
		res = pipeline.FilterOverdue(res)
	}

	return &dataset{cfg: cfg, load: load, result: res}, nil
}

func loadSnapshots(files []source.DiscoveredFile, opts source.ParseOptions, logger *slog.Logger) (*pipeline.LoadResult, error) {
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%10 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
		}
	}

	// Try cached load unless --no-cache
	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			logger.Warn("cache unavailable, doing full parse", slog.String("error", err.Error()))
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(files, opts, cache, progressFn)
			var pe *source.ParseError
			switch {
			case errors.As(err, &pe):
				return nil, err
			case err != nil:
				logger.Warn("cache error, falling back to full parse", slog.String("error", err.Error()))
			default:
				if !flagQuiet {
					fmt.Fprintf(os.Stderr, "\r  %d cached + %d parsed (%s contracts)    \n",
						cr.CacheHits, cr.Reparsed, cli.FormatNumber(int64(cr.ContractCount)))
				}
				return &cr.LoadResult, nil
			}
		}
	}

	result, err := pipeline.Load(files, opts, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Parsed %d files (%s contracts)    \n",
			result.ParsedFiles, cli.FormatNumber(int64(result.ContractCount)))
	}
	return result, nil
}

// printExcluded reports contracts dropped for malformed date ranges.
func printExcluded(excluded []string) {
	if len(excluded) == 0 || flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "\n  %d contracts excluded (end date not after start date)\n", len(excluded))
}
