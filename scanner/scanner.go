// Package scanner lists a directory and loads its images into normalized samples.
package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"imagecompare/imageprocessor"
	"imagecompare/logging"
	"imagecompare/types"
)

// ErrNotDirectory is returned when the scan root is not a directory
var ErrNotDirectory = errors.New("path is not a directory")

// LoadReport summarizes a load
type LoadReport struct {
	Found  int
	Loaded int
	// Failures aggregates one error per file that could not be loaded
	Failures *multierror.Error
}

// ListFiles returns the regular files directly inside dir that pass the
// filter, sorted by name. Subdirectories are not descended into.
func ListFiles(dir string, options ScanOptions) ([]string, FileStats, error) {
	var stats FileStats

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stats, errors.Wrapf(err, "folder path does not exist: %s", dir)
		}
		return nil, stats, errors.Wrapf(err, "cannot access folder path: %s", dir)
	}
	if !info.IsDir() {
		return nil, stats, errors.Wrapf(ErrNotDirectory, "%s", dir)
	}

	// Absolute paths keep cache keys stable across working directories
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, errors.Wrapf(err, "cannot list %s", dir)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !options.Filter.Allows(entry.Name()) {
			stats.skippedFiles++
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if fi, err := entry.Info(); err == nil {
			stats.totalBytes += fi.Size()
		}
		files = append(files, path)
	}
	sort.Strings(files)
	stats.totalFiles = len(files)

	if options.Filter == nil {
		logging.DebugLog("Listed %d files in %s (no extension filter)", len(files), dir)
	}
	return files, stats, nil
}

// LoadSamples normalizes every file in parallel. Files that fail to load are
// reported and left out; the returned samples keep the input order.
func LoadSamples(ctx context.Context, files []string, options ScanOptions, tracker *ProgressTracker) ([]*types.Sample, LoadReport, error) {
	report := LoadReport{Found: len(files)}
	if options.Normalizer == nil {
		return nil, report, errors.New("scanner has no normalizer")
	}

	workers := options.MaxWorkers
	if workers <= 0 {
		workers = 1
	}

	slots := make([]*types.Sample, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sample, result := processImage(path, options)
			slots[i] = sample
			failures[i] = result.Error
			if tracker != nil {
				tracker.Record(result)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, report, err
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	samples := make([]*types.Sample, 0, len(files))
	for i, s := range slots {
		if s != nil {
			samples = append(samples, s)
			continue
		}
		if failures[i] != nil {
			report.Failures = multierror.Append(report.Failures, failures[i])
		}
	}
	report.Loaded = len(samples)
	return samples, report, nil
}

// processImage loads and normalizes a single file
func processImage(path string, options ScanOptions) (sample *types.Sample, result ProcessImageResult) {
	result.Path = path

	// Use defer to recover from any panics inside a decoder
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s", r, path, string(debug.Stack()))
			sample = nil
			result.Success = false
			result.Error = errors.Errorf("panic during image loading %s: %v", path, r)
		}
	}()

	fileInfo, err := os.Stat(path)
	if err != nil {
		result.Error = errors.Wrapf(err, "cannot stat file %s", path)
		return nil, result
	}

	if options.Filter == nil {
		logging.DebugLog("Loading %s as %s", filepath.Base(path), imageprocessor.GetFileFormat(path))
	}

	grid, err := options.Normalizer.NormalizeFile(path)
	if err != nil {
		result.Error = err
		return nil, result
	}

	result.Success = true
	return &types.Sample{
		Name:    filepath.Base(path),
		Path:    path,
		Size:    fileInfo.Size(),
		ModTime: fileInfo.ModTime(),
		Grid:    grid,
	}, result
}

// Scan lists and loads a folder, printing the progress lines to out
func Scan(ctx context.Context, options ScanOptions, out io.Writer) ([]*types.Sample, LoadReport, error) {
	files, stats, err := ListFiles(options.FolderPath, options)
	if err != nil {
		return nil, LoadReport{}, err
	}

	absPath, err := filepath.Abs(options.FolderPath)
	if err != nil {
		absPath = options.FolderPath
	}
	PrintStartupInfo(out, absPath, stats)

	tracker := NewProgressTracker(len(files), options)
	samples, report, err := LoadSamples(ctx, files, options, tracker)
	tracker.Stop()
	if err != nil {
		return nil, report, err
	}

	PrintCompletionStats(out, tracker, report.Loaded)
	return samples, report, nil
}
