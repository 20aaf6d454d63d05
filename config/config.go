// Package config resolves the run configuration from defaults, a .env file,
// IMGCMP_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"imagecompare/evaluator"
	"imagecompare/imageprocessor"
	"imagecompare/logging"
	"imagecompare/metrics"
	"imagecompare/report"
	"imagecompare/signalhandler"
	"imagecompare/utils"
)

const envPrefix = "IMGCMP_"

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

type Options struct {
	Dir            string
	Width          int
	Height         int
	Filter         string
	Metric         string
	Hasher         string
	PixelTolerance float64
	ChannelDivisor float64
	Threshold      float64
	Order          string
	Format         string
	Extensions     []string
	AnyFile        bool
	Workers        int
	CachePath      string
	Debug          bool
	LogFile        string
	NoColor        bool
	Progress       bool
}

// Defaults returns the built-in configuration
func Defaults() *Options {
	return &Options{
		Width:          imageprocessor.DefaultWidth,
		Height:         imageprocessor.DefaultHeight,
		Filter:         imageprocessor.DefaultFilter,
		Metric:         string(metrics.KindPixelDiff),
		Hasher:         imageprocessor.DefaultHasher,
		PixelTolerance: metrics.DefaultPixelTolerance,
		ChannelDivisor: metrics.DefaultChannelDivisor,
		Threshold:      evaluator.DefaultNearDuplicateThreshold,
		Order:          report.OrderEmission,
		Format:         report.FormatPercent,
		Extensions:     append([]string(nil), imageprocessor.DefaultExtensions...),
		Workers:        signalhandler.GetOptimalProcs(),
		LogFile:        "imagecompare.log",
	}
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load builds options from defaults, the environment and args
func Load(args []string) (*Options, error) {
	LoadDotEnv()
	opts := Defaults()
	opts.ApplyEnv()
	if err := opts.ParseFlags(args); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

// ApplyEnv overrides fields from IMGCMP_* variables
func (o *Options) ApplyEnv() {
	o.Dir = getEnv("DIR", o.Dir)
	o.Width = getEnvInt("WIDTH", o.Width)
	o.Height = getEnvInt("HEIGHT", o.Height)
	o.Filter = getEnv("FILTER", o.Filter)
	o.Metric = getEnv("METRIC", o.Metric)
	o.Hasher = getEnv("HASHER", o.Hasher)
	o.PixelTolerance = getEnvThreshold("PIXEL_TOLERANCE", o.PixelTolerance)
	o.ChannelDivisor = getEnvFloat("CHANNEL_DIVISOR", o.ChannelDivisor)
	o.Threshold = getEnvThreshold("THRESHOLD", o.Threshold)
	o.Order = getEnv("ORDER", o.Order)
	o.Format = getEnv("FORMAT", o.Format)
	o.Extensions = getEnvList("EXTENSIONS", o.Extensions)
	o.AnyFile = getEnvBool("ANY_FILE", o.AnyFile)
	o.Workers = getEnvInt("WORKERS", o.Workers)
	o.CachePath = getEnv("CACHE", o.CachePath)
	o.Debug = getEnvBool("DEBUG", o.Debug)
	o.LogFile = getEnv("LOGFILE", o.LogFile)
	o.NoColor = getEnvBool("NO_COLOR", o.NoColor)
	o.Progress = getEnvBool("PROGRESS", o.Progress)
}

// FlagSet declares every flag bound to the fields of o
func (o *Options) FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(utils.ProgramName(), pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVarP(&o.Dir, "dir", "d", o.Dir, "Directory containing the images to compare")
	fs.IntVar(&o.Width, "width", o.Width, "Target width of the normalized images")
	fs.IntVar(&o.Height, "height", o.Height, "Target height of the normalized images")
	fs.StringVar(&o.Filter, "filter", o.Filter,
		"Resampling filter: "+strings.Join(imageprocessor.ResamplerNames(), ", "))
	fs.StringVarP(&o.Metric, "metric", "m", o.Metric,
		"Similarity metric: pixel-diff, exact-pixel, color-distance, perceptual-hash, mean-luma")
	fs.StringVar(&o.Hasher, "hasher", o.Hasher,
		"Fingerprint for perceptual-hash: "+strings.Join(imageprocessor.FingerprinterNames(), ", "))
	fs.Float64VarP(&o.PixelTolerance, "pixel-tolerance", "p", o.PixelTolerance,
		"Per-pixel acceptance threshold (0.0-1.0); 0.9 tolerates 10% difference")
	fs.Float64Var(&o.ChannelDivisor, "channel-divisor", o.ChannelDivisor,
		"Channels' worth of range the pixel delta is normalized by")
	fs.Float64VarP(&o.Threshold, "threshold", "t", o.Threshold,
		"Similarity above which a pair is highlighted as a near-duplicate (0.0-1.0)")
	fs.StringVar(&o.Order, "order", o.Order, "Output order: emission, ranked")
	fs.StringVarP(&o.Format, "format", "f", o.Format, "Output format: percent, float, table, json")
	fs.StringSliceVar(&o.Extensions, "extensions", o.Extensions, "Allowed file extensions")
	fs.BoolVar(&o.AnyFile, "any-file", o.AnyFile, "Try to decode every regular file regardless of extension")
	fs.IntVarP(&o.Workers, "workers", "w", o.Workers, "Number of parallel workers")
	fs.StringVar(&o.CachePath, "cache", o.CachePath, "SQLite file caching fingerprints (perceptual-hash only)")
	fs.BoolVar(&o.Debug, "debug", o.Debug, "Enable debug logging to the log file")
	fs.StringVar(&o.LogFile, "logfile", o.LogFile, "Debug log file path")
	fs.BoolVar(&o.NoColor, "no-color", o.NoColor, "Disable colored highlighting")
	fs.BoolVar(&o.Progress, "progress", o.Progress, "Show a progress bar while loading")
	return fs
}

// ParseFlags applies command-line flags. The first positional argument is
// taken as the directory when --dir is not given.
func (o *Options) ParseFlags(args []string) error {
	fs := o.FlagSet()
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 && !fs.Changed("dir") {
		o.Dir = rest[0]
	}
	return nil
}

// Validate checks ranges and names
func (o *Options) Validate() error {
	if o.Dir == "" {
		return errors.Wrap(ErrInvalidConfig, "missing directory (use DIR or --dir=PATH)")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "target size must be positive, got %dx%d", o.Width, o.Height)
	}
	if _, err := imageprocessor.LookupResampler(o.Filter); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if _, err := metrics.ParseKind(o.Metric); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if _, err := imageprocessor.NewFingerprinter(o.Hasher); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if err := utils.ValidateThreshold(o.PixelTolerance); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "pixel tolerance: %v", err)
	}
	if err := utils.ValidateThreshold(o.Threshold); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "threshold: %v", err)
	}
	if o.ChannelDivisor <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "channel divisor must be positive, got %v", o.ChannelDivisor)
	}
	switch o.Order {
	case report.OrderEmission, report.OrderRanked:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown order %q", o.Order)
	}
	switch o.Format {
	case report.FormatPercent, report.FormatFloat, report.FormatTable, report.FormatJSON:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown format %q", o.Format)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if !o.AnyFile {
		o.warnUndecodableExtensions()
	}
	return nil
}

// warnUndecodableExtensions flags allow-list entries no registered decoder reads
func (o *Options) warnUndecodableExtensions() {
	for ext := range imageprocessor.NewExtensionFilter(o.Extensions) {
		if !imageprocessor.IsImageFile(ext) {
			logging.LogWarning("Extension %s has no decoder (supported: %s); such files will fail to load",
				ext, strings.Join(imageprocessor.GetSupportedExtensions(), ", "))
		}
	}
}

// ExtensionFilter returns the configured allow-list, or nil in any-file mode
func (o *Options) ExtensionFilter() imageprocessor.ExtensionFilter {
	if o.AnyFile {
		return nil
	}
	return imageprocessor.NewExtensionFilter(o.Extensions)
}

func getEnv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getEnvThreshold reads a [0,1] value; invalid values keep the default
func getEnvThreshold(key string, def float64) float64 {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	threshold, err := utils.ParseThreshold(v)
	if err != nil {
		logging.LogWarning("Ignoring %s%s: %v", envPrefix, key, err)
		return def
	}
	return threshold
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return utils.ParseList(v)
	}
	return def
}
