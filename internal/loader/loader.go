// Package loader reads polylines out of CAD and GIS files.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/dxfnet/internal/network"
)

// Loader extracts polylines, in document order, from raw file bytes.
type Loader interface {
	Load(r io.Reader, filename string) ([]network.Polyline, error)
}

// Options tune what a loader extracts.
type Options struct {
	// IncludeLines adds DXF LINE entities as two-vertex polylines.
	IncludeLines bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{IncludeLines: true}
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".dxf":     true,
	".geojson": true,
	".json":    true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string, opts Options) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".dxf":
		return &DXFLoader{IncludeLines: opts.IncludeLines}, nil
	case ".geojson", ".json":
		return &GeoJSONLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
