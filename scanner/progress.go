package scanner

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"imagecompare/logging"
)

// NewProgressTracker initializes the progress tracker
func NewProgressTracker(total int, options ScanOptions) *ProgressTracker {
	var bar *progressbar.ProgressBar
	if options.ShowProgress && options.ProgressOut != nil {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(options.ProgressOut),
			progressbar.OptionSetDescription("loading"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	} else {
		bar = progressbar.DefaultSilent(int64(total))
	}

	return &ProgressTracker{
		bar:   bar,
		total: total,
	}
}

// Record updates the tracker state with one loading result
func (p *ProgressTracker) Record(result ProcessImageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if !result.Success {
		p.errors++
		if result.Error != nil {
			logging.LogImageProcessed(result.Path, false, result.Error.Error())
		}
	} else {
		logging.LogImageProcessed(result.Path, true, "")
	}
	_ = p.bar.Add(1)
}

// Stop ends the progress display
func (p *ProgressTracker) Stop() {
	_ = p.bar.Finish()
}

// Processed returns the number of files handled so far
func (p *ProgressTracker) Processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Errors returns the number of files that failed to load
func (p *ProgressTracker) Errors() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errors
}

// PrintStartupInfo displays information about the scan before loading
func PrintStartupInfo(w io.Writer, absPath string, stats FileStats) {
	fmt.Fprintf(w, "loading from %s\n", absPath)
	fmt.Fprintf(w, "found %d files\n", stats.totalFiles)

	logging.DebugLog("Found %d files (%s), skipped %d by extension",
		stats.totalFiles, humanize.Bytes(uint64(stats.totalBytes)), stats.skippedFiles)
}

// PrintCompletionStats displays statistics after loading
func PrintCompletionStats(w io.Writer, tracker *ProgressTracker, loaded int) {
	fmt.Fprintf(w, "loaded %d files, resizing...\n", tracker.Processed())
	if errs := tracker.Errors(); errs > 0 {
		logging.LogWarning("%d of %d files could not be decoded and were skipped", errs, tracker.Processed())
	}
	fmt.Fprintf(w, "resizing done, comparing %d images\n", loaded)
}
