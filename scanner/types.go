package scanner

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"imagecompare/imageprocessor"
)

// ScanOptions defines the options for scanning
type ScanOptions struct {
	FolderPath string
	// Filter restricts which files are loaded; nil accepts every regular file
	Filter     imageprocessor.ExtensionFilter
	Normalizer *imageprocessor.Normalizer
	MaxWorkers int
	// ShowProgress draws a progress bar on ProgressOut
	ShowProgress bool
	ProgressOut  io.Writer
}

// ProcessImageResult holds the result of loading one file
type ProcessImageResult struct {
	Path    string
	Success bool
	Error   error
}

// FileStats tracks information about files to be processed
type FileStats struct {
	totalFiles   int
	skippedFiles int
	totalBytes   int64
}

// ProgressTracker tracks progress of the load operation
type ProgressTracker struct {
	processed int
	errors    int
	bar       *progressbar.ProgressBar
	mu        sync.Mutex
	total     int
}
