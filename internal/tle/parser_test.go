package tle

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreeLine(t *testing.T) {
	starlink := "STARLINK-1007\n1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995\n2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05\n"
	entries, err := Parse(strings.NewReader(issText+starlink), testLogger)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 25544, entries[0].NORADID)
	assert.Equal(t, issName, entries[0].Name)
	assert.Equal(t, 44713, entries[1].NORADID)
	assert.Equal(t, time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC), entries[0].Epoch.Round(time.Second))
}

func TestParseSkipsMalformed(t *testing.T) {
	data := "garbage\n" + issText + "BROKEN\n1 ABCDEU 98067A   25045.18032407\n2 ABCDE\n"
	entries, err := Parse(strings.NewReader(data), testLogger)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 25544, entries[0].NORADID)
}

func TestParseEpochCentury(t *testing.T) {
	got, err := parseEpoch("98001.50000000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1998, 1, 1, 12, 0, 0, 0, time.UTC), got)

	got, err = parseEpoch("25032.00000000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = parseEpoch("9")
	assert.Error(t, err)
}

func TestParseElementsTLE(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantName string
	}{
		{"three-line", issText, issName},
		{"two-line space-track", issLine1 + "\r\n" + issLine2 + "\r\n", ""},
		{"zero-prefixed name", "0 ISS (ZARYA)\n" + issLine1 + "\n" + issLine2, issName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := ParseElements([]byte(tt.data), FormatTLE)
			require.NoError(t, err)
			assert.Equal(t, FormatTLE, el.Format)
			assert.Equal(t, tt.wantName, el.Name)
			l1, l2, err := el.Lines()
			require.NoError(t, err)
			assert.Equal(t, issLine1, l1)
			assert.Equal(t, issLine2, l2)
		})
	}
}

func TestParseElementsOMM(t *testing.T) {
	data := `[{"OBJECT_NAME":"ISS (ZARYA)","NORAD_CAT_ID":"25544","INCLINATION":"51.6412",` +
		`"TLE_LINE1":"` + issLine1 + `","TLE_LINE2":"` + issLine2 + `"}]`
	el, err := ParseElements([]byte(data), FormatOMM)
	require.NoError(t, err)
	assert.Equal(t, FormatOMM, el.Format)
	assert.Equal(t, "ISS (ZARYA)", el.Name)
	assert.Equal(t, "51.6412", el.Inclination)

	l1, l2, err := el.Lines()
	require.NoError(t, err)
	assert.Equal(t, issLine1, l1)
	assert.Equal(t, issLine2, l2)
}

func TestParseElementsErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"no pair", "just a name\n", FormatTLE},
		{"bad json", "{", FormatOMM},
		{"empty omm list", "[]", FormatOMM},
		{"unknown format", issText, Format("XML")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseElements([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestElementsLinesErrors(t *testing.T) {
	tests := []struct {
		name string
		el   Elements
	}{
		{"tle missing line", Elements{Format: FormatTLE, Line1: issLine1}},
		{"omm no records", Elements{Format: FormatOMM}},
		{"omm missing lines", Elements{Format: FormatOMM, Records: []OMMRecord{{ObjectName: "X"}}}},
		{"unknown format", Elements{Format: "KVN", Line1: issLine1, Line2: issLine2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.el.Lines()
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("omm")
	require.NoError(t, err)
	assert.Equal(t, FormatOMM, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTLE, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrMalformed)
}
