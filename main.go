package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"imagecompare/config"
	"imagecompare/database"
	"imagecompare/evaluator"
	"imagecompare/imageprocessor"
	"imagecompare/logging"
	"imagecompare/metrics"
	"imagecompare/report"
	"imagecompare/scanner"
	"imagecompare/signalhandler"
	"imagecompare/types"
	"imagecompare/utils"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	// Set up proper signal handling
	ctx, cancel := signalhandler.SetupHandler(context.Background())
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := config.Load(args)
	if err != nil {
		return handleConfigError(opts, err, stderr)
	}

	// Setup debug logging if enabled
	if opts.Debug {
		if err := logging.SetupLogger(opts.LogFile); err != nil {
			fmt.Fprintf(stderr, "Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "Debug mode enabled. Logging to: %s\n", opts.LogFile)
			defer logging.CloseLogger()
		}
	}

	startTime := time.Now()

	normalizer, err := imageprocessor.NewNormalizer(opts.Width, opts.Height, opts.Filter)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	scanOptions := scanner.ScanOptions{
		FolderPath:   opts.Dir,
		Filter:       opts.ExtensionFilter(),
		Normalizer:   normalizer,
		MaxWorkers:   opts.Workers,
		ShowProgress: opts.Progress,
		ProgressOut:  stderr,
	}

	samples, loadReport, err := scanner.Scan(ctx, scanOptions, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error scanning folder: %v\n", err)
		return exitError
	}
	if loadReport.Failures != nil {
		logging.DebugLog("Load failures:\n%v", loadReport.Failures)
	}

	results, err := compare(ctx, opts, samples)
	if err != nil {
		fmt.Fprintf(stderr, "Error comparing images: %v\n", err)
		return exitError
	}

	reporter := report.New(stdout, report.Options{
		Format:  opts.Format,
		Order:   opts.Order,
		NoColor: opts.NoColor,
	})
	if err := reporter.Write(results); err != nil {
		fmt.Fprintf(stderr, "Error writing report: %v\n", err)
		return exitError
	}

	logging.DebugLog("Compared %d pairs of %d images in %v", len(results), len(samples), time.Since(startTime))
	return exitOK
}

// compare scores every pair of samples with the configured metric
func compare(ctx context.Context, opts *config.Options, samples []*types.Sample) ([]types.PairResult, error) {
	kind, err := metrics.ParseKind(opts.Metric)
	if err != nil {
		return nil, err
	}

	var cache metrics.TokenCache
	if kind == metrics.KindPerceptualHash && opts.CachePath != "" {
		fc, err := database.OpenCache(opts.CachePath, opts.Width, opts.Height, opts.Filter)
		if err != nil {
			return nil, errors.Wrap(err, "open fingerprint cache")
		}
		defer func() {
			if stats, err := fc.GetCacheStats(); err == nil {
				logging.DebugLog("Fingerprint cache: %d entries, %d hits, %d misses",
					stats.Entries, stats.Hits, stats.Misses)
			}
			fc.Close()
		}()
		cache = fc
	}

	metric, err := metrics.New(metrics.Options{
		Kind:           kind,
		PixelTolerance: opts.PixelTolerance,
		ChannelDivisor: opts.ChannelDivisor,
		Hasher:         opts.Hasher,
		Cache:          cache,
	})
	if err != nil {
		return nil, err
	}

	eval := evaluator.New(metric, opts.Workers)
	eval.NearDuplicateThreshold = opts.Threshold

	matrix := evaluator.NewMatrix(len(evaluator.Pairs(len(samples))))
	if err := eval.Evaluate(ctx, samples, matrix); err != nil {
		return nil, err
	}
	results := matrix.Results()
	logging.DebugLog("Scored %d pairs, %d near-duplicates above %.2f",
		matrix.Len(), len(evaluator.NearDuplicates(results)), opts.Threshold)
	return results, nil
}

func handleConfigError(opts *config.Options, err error, stderr io.Writer) int {
	fs := opts.FlagSet()
	switch {
	case errors.Is(err, pflag.ErrHelp):
		utils.PrintUsage(stderr, fs)
		return exitOK
	case !errors.Is(err, config.ErrInvalidConfig):
		// Flag parsing failed
		fmt.Fprintf(stderr, "Error: %v\n", err)
		utils.PrintUsage(stderr, fs)
		return exitUsage
	case opts.Dir == "":
		fmt.Fprintf(stderr, "Error: %v\n", err)
		utils.PrintUsage(stderr, fs)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}
