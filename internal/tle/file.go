package tle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSource serves elements from a local file. A .json file is read as
// OMM, anything else as TLE text.
//
// A TLE file may be a catalog of named 3-line entries. When a catalog number
// is requested, the matching entry whose epoch is closest to the requested
// day is returned. With no catalog number the first line pair wins.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a FileSource reading path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// Elements reads and parses the file.
func (s *FileSource) Elements(_ context.Context, noradID int, day time.Time, format Format) (Elements, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Elements{}, fmt.Errorf("reading element file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(s.path), ".json") {
		format = FormatOMM
	}

	if format == FormatTLE && noradID > 0 {
		entries, err := Parse(bytes.NewReader(data), s.logger)
		if err != nil {
			return Elements{}, err
		}
		if len(entries) > 0 {
			best, ok := closestEntry(entries, noradID, day)
			if !ok {
				return Elements{}, fmt.Errorf("NORAD %d not found in %s (%d entries)", noradID, s.path, len(entries))
			}
			el := FromEntry(best)
			el.Raw = []byte(best.Name + "\n" + best.Line1 + "\n" + best.Line2 + "\n")
			return el, nil
		}
	}
	return ParseElements(data, format)
}

// closestEntry picks the entry for noradID whose epoch is nearest day.
func closestEntry(entries []TLEEntry, noradID int, day time.Time) (TLEEntry, bool) {
	var best TLEEntry
	var bestGap time.Duration
	found := false
	for _, e := range entries {
		if e.NORADID != noradID {
			continue
		}
		gap := e.Epoch.Sub(day).Abs()
		if !found || gap < bestGap {
			best, bestGap, found = e, gap, true
		}
	}
	return best, found
}
