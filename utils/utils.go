package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// ParseThreshold parses and validates a [0,1] threshold value from string
func ParseThreshold(thresholdStr string) (float64, error) {
	parsedThreshold, err := strconv.ParseFloat(strings.TrimSpace(thresholdStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold value '%s', expected a number between 0.0 and 1.0", thresholdStr)
	}
	return parsedThreshold, ValidateThreshold(parsedThreshold)
}

// ValidateThreshold checks that a threshold lies within [0,1]
func ValidateThreshold(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("invalid threshold value '%v', expected a number between 0.0 and 1.0", v)
	}
	return nil
}

// ParseList splits a comma separated list, dropping empty items
func ParseList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}

// ProgramName returns the base name of the running executable
func ProgramName() string {
	if len(os.Args) == 0 {
		return "imagecompare"
	}
	return filepath.Base(os.Args[0])
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage(w io.Writer, fs *pflag.FlagSet) {
	name := ProgramName()
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s [flags] DIR\n", name)
	fmt.Fprintf(w, "\nCompares every pair of images in DIR and prints their similarity.\n")
	fmt.Fprintf(w, "\nFlags:\n")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintf(w, "\nEnvironment variables prefixed with IMGCMP_ (and a .env file) provide defaults,\n")
	fmt.Fprintf(w, "for example IMGCMP_METRIC=perceptual-hash or IMGCMP_WIDTH=512.\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s ./photos\n", name)
	fmt.Fprintf(w, "  %s --metric=perceptual-hash --hasher=dhash --order=ranked ./photos\n", name)
	fmt.Fprintf(w, "  %s --metric=exact-pixel --width=512 --height=512 --format=table ./photos\n", name)
}
