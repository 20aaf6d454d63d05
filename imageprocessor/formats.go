package imageprocessor

import (
	"path/filepath"
	"sort"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
}

// DefaultExtensions is the allow-list used when none is configured
var DefaultExtensions = []string{".png", ".jpeg", ".jpg"}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// IsImageFile checks if a file is a decodable image based on extension
func IsImageFile(path string) bool {
	return GetFileFormat(path) != FormatUnknown
}

// GetSupportedExtensions returns all decodable image file extensions, sorted
func GetSupportedExtensions() []string {
	extensions := make([]string, 0, len(formatExtensions))
	for ext := range formatExtensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// ExtensionFilter is a case-insensitive extension allow-list.
// A nil filter accepts every file.
type ExtensionFilter map[string]struct{}

// NewExtensionFilter builds a filter from extensions with or without the leading dot
func NewExtensionFilter(extensions []string) ExtensionFilter {
	f := make(ExtensionFilter, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f[ext] = struct{}{}
	}
	return f
}

// Allows reports whether the file name passes the filter
func (f ExtensionFilter) Allows(name string) bool {
	if f == nil {
		return true
	}
	_, ok := f[strings.ToLower(filepath.Ext(name))]
	return ok
}
