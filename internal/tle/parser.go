package tle

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads 3-line NORAD TLE format from r and returns parsed entries.
// Malformed entries are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]TLEEntry, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	var entries []TLEEntry
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		entry, err := newEntry(name, line1, line2)
		if err != nil {
			logger.Warn("skipping TLE entry", "name", name, "error", err)
			i += 3
			continue
		}
		entries = append(entries, entry)
		i += 3
	}

	return entries, nil
}

// ParseElements decodes an upstream payload in the given format.
// TLE payloads may be bare line pairs or carry a name line; the first
// valid pair wins. OMM payloads are a JSON array of records.
func ParseElements(data []byte, format Format) (Elements, error) {
	switch format {
	case FormatTLE:
		lines, err := readLines(bytes.NewReader(data))
		if err != nil {
			return Elements{}, err
		}
		for i := 0; i+1 < len(lines); i++ {
			if !strings.HasPrefix(lines[i], "1 ") || !strings.HasPrefix(lines[i+1], "2 ") {
				continue
			}
			name := ""
			if i > 0 && !strings.HasPrefix(lines[i-1], "2 ") {
				name = strings.TrimSpace(strings.TrimPrefix(lines[i-1], "0 "))
			}
			el := Elements{
				Format:      FormatTLE,
				Name:        name,
				Line1:       lines[i],
				Line2:       lines[i+1],
				Inclination: inclination(lines[i+1]),
				Raw:         data,
			}
			return el, nil
		}
		return Elements{}, fmt.Errorf("%w: no TLE line pair found", ErrMalformed)

	case FormatOMM:
		var records []OMMRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return Elements{}, fmt.Errorf("%w: decoding OMM JSON: %v", ErrMalformed, err)
		}
		if len(records) == 0 {
			return Elements{}, fmt.Errorf("%w: OMM data must be a non-empty list of records", ErrMalformed)
		}
		return Elements{
			Format:      FormatOMM,
			Name:        records[0].ObjectName,
			Inclination: records[0].Inclination,
			Records:     records,
			Raw:         data,
		}, nil

	default:
		return Elements{}, fmt.Errorf("%w: data format must be TLE or OMM, got %q", ErrMalformed, format)
	}
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}
	return lines, nil
}

func newEntry(name, line1, line2 string) (TLEEntry, error) {
	if len(line1) < 32 {
		return TLEEntry{}, fmt.Errorf("short line1 (%d chars)", len(line1))
	}

	// NORAD ID lives in line1 cols 3-7.
	noradStr := strings.TrimSpace(line1[2:7])
	noradID, err := strconv.Atoi(noradStr)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid NORAD ID %q", noradStr)
	}

	epochStr := strings.TrimSpace(line1[18:32])
	epoch, err := parseEpoch(epochStr)
	if err != nil {
		return TLEEntry{}, err
	}

	return TLEEntry{
		NORADID: noradID,
		Name:    strings.TrimSpace(name),
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// inclination returns line2 cols 9-16 trimmed, or "" for short lines.
func inclination(line2 string) string {
	if len(line2) < 16 {
		return ""
	}
	return strings.TrimSpace(line2[8:16])
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	yearStr := s[:2]
	dayStr := s[2:]

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", yearStr, err)
	}

	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(dayStr, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", dayStr, err)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	t = t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour)))

	return t, nil
}
