package tle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format tags the shape of an element set.
type Format string

const (
	FormatTLE Format = "TLE"
	FormatOMM Format = "OMM"
)

// ParseFormat accepts "tle" or "omm" in any case. Empty means TLE.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(FormatTLE):
		return FormatTLE, nil
	case string(FormatOMM):
		return FormatOMM, nil
	default:
		return "", fmt.Errorf("%w: unknown data format %q", ErrMalformed, s)
	}
}

// ErrMalformed reports element data that does not match its declared format.
var ErrMalformed = errors.New("malformed element set")

// TLEEntry represents a single satellite's two-line element set.
type TLEEntry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// OMMRecord is one Orbit Mean-Elements Message record in Space-Track's JSON layout.
// Only the fields the track pipeline reads are typed; the rest are ignored.
type OMMRecord struct {
	ObjectName  string `json:"OBJECT_NAME,omitempty"`
	NORADCatID  string `json:"NORAD_CAT_ID,omitempty"`
	Epoch       string `json:"EPOCH,omitempty"`
	Inclination string `json:"INCLINATION,omitempty"`
	TLELine1    string `json:"TLE_LINE1,omitempty"`
	TLELine2    string `json:"TLE_LINE2,omitempty"`
}

// Elements is an element set in one of the supported formats. For FormatTLE
// the Line fields are used; for FormatOMM the first of Records is.
type Elements struct {
	Format      Format
	Name        string
	Line1       string
	Line2       string
	Inclination string
	Records     []OMMRecord

	// Raw holds the upstream payload as received, for saving alongside outputs.
	Raw []byte
}

// Lines returns the two element lines the propagator consumes.
func (e Elements) Lines() (string, string, error) {
	switch e.Format {
	case FormatTLE:
		if e.Line1 == "" || e.Line2 == "" {
			return "", "", fmt.Errorf("%w: TLE data needs two lines", ErrMalformed)
		}
		return e.Line1, e.Line2, nil
	case FormatOMM:
		if len(e.Records) == 0 {
			return "", "", fmt.Errorf("%w: OMM data must be a non-empty list of records", ErrMalformed)
		}
		rec := e.Records[0]
		if rec.TLELine1 == "" || rec.TLELine2 == "" {
			return "", "", fmt.Errorf("%w: OMM record missing TLE_LINE1/TLE_LINE2", ErrMalformed)
		}
		return rec.TLELine1, rec.TLELine2, nil
	default:
		return "", "", fmt.Errorf("%w: data format must be TLE or OMM, got %q", ErrMalformed, e.Format)
	}
}

// FromEntry wraps a parsed TLE entry as TLE-format Elements.
func FromEntry(entry TLEEntry) Elements {
	return Elements{
		Format:      FormatTLE,
		Name:        entry.Name,
		Line1:       entry.Line1,
		Line2:       entry.Line2,
		Inclination: inclination(entry.Line2),
	}
}
