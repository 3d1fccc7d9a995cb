package tle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Elements(_ context.Context, _ int, _ time.Time, format Format) (Elements, error) {
	s.calls++
	if s.err != nil {
		return Elements{}, s.err
	}
	return ParseElements([]byte(issText), format)
}

func TestCacheKey(t *testing.T) {
	now := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "25544-TLE-2025-02-14", CacheKey(25544, FormatTLE, now, now))
	assert.Equal(t, "25544-OMM-2025-02-01", CacheKey(25544, FormatOMM, time.Date(2025, 2, 1, 23, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "25544-TLE-latest", CacheKey(25544, FormatTLE, now.AddDate(0, 0, 1), now))
}

func TestCachedSourceServesFromMemory(t *testing.T) {
	up := &countingSource{}
	src := NewCachedSource(up, NewStore(), nil, time.Hour, testLogger)

	day := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		el, err := src.Elements(context.Background(), 25544, day, FormatTLE)
		require.NoError(t, err)
		assert.Equal(t, issLine1, el.Line1)
	}
	assert.Equal(t, 1, up.calls)
}

func TestCachedSourceLatestExpires(t *testing.T) {
	up := &countingSource{}
	src := NewCachedSource(up, NewStore(), nil, time.Hour, testLogger)
	now := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	future := now.AddDate(0, 0, 3)
	_, err := src.Elements(context.Background(), 25544, future, FormatTLE)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = src.Elements(context.Background(), 25544, future, FormatTLE)
	require.NoError(t, err)
	assert.Equal(t, 2, up.calls)
}

func TestCachedSourceDiskLayer(t *testing.T) {
	dir := t.TempDir()
	disk := NewCache(dir, 2)
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	first := NewCachedSource(&countingSource{}, NewStore(), disk, time.Hour, testLogger)
	_, err := first.Elements(context.Background(), 25544, day, FormatTLE)
	require.NoError(t, err)

	// A fresh process with an empty store reads the disk cache.
	failing := &countingSource{err: errors.New("offline")}
	second := NewCachedSource(failing, NewStore(), disk, time.Hour, testLogger)
	el, err := second.Elements(context.Background(), 25544, day, FormatTLE)
	require.NoError(t, err)
	assert.Equal(t, issLine2, el.Line2)
	assert.Equal(t, 0, failing.calls)
}

func TestCachedSourceUpstreamError(t *testing.T) {
	src := NewCachedSource(&countingSource{err: errors.New("boom")}, NewStore(), nil, time.Hour, testLogger)
	_, err := src.Elements(context.Background(), 25544, time.Now(), FormatTLE)
	assert.EqualError(t, err, "boom")
}

func TestDiskCachePrune(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)
	base := time.Unix(1700000000, 0)

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Write("k", []byte{byte('a' + i)}, base.Add(time.Duration(i)*time.Minute)))
	}

	entries, err := os.ReadDir(filepath.Join(dir, "k"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, ts, err := c.LoadLatest("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("d"), data)
	assert.True(t, ts.Equal(base.Add(3*time.Minute)))

	_, _, err = c.LoadLatest("missing")
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "iss.tle")
	require.NoError(t, os.WriteFile(path, []byte(issText), 0644))

	el, err := NewFileSource(path, testLogger).Elements(context.Background(), 0, time.Now(), FormatTLE)
	require.NoError(t, err)
	assert.Equal(t, issName, el.Name)

	_, err = NewFileSource(filepath.Join(dir, "nope.tle"), testLogger).Elements(context.Background(), 0, time.Now(), FormatTLE)
	assert.Error(t, err)
}

func TestFileSourceCatalog(t *testing.T) {
	older := "ISS (ZARYA)\n" +
		"1 25544U 98067A   25030.50000000  .00016717  00000+0  30099-3 0  9993\n" + issLine2 + "\n"
	starlink := "STARLINK-1007\n1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995\n2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05\n"
	path := filepath.Join(t.TempDir(), "catalog.txt")
	require.NoError(t, os.WriteFile(path, []byte(older+starlink+issText), 0644))
	src := NewFileSource(path, testLogger)

	el, err := src.Elements(context.Background(), 25544, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), FormatTLE)
	require.NoError(t, err)
	assert.Equal(t, issLine1, el.Line1)

	el, err = src.Elements(context.Background(), 25544, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), FormatTLE)
	require.NoError(t, err)
	assert.Contains(t, el.Line1, "25030.50000000")

	el, err = src.Elements(context.Background(), 44713, time.Now(), FormatTLE)
	require.NoError(t, err)
	assert.Equal(t, "STARLINK-1007", el.Name)

	_, err = src.Elements(context.Background(), 99999, time.Now(), FormatTLE)
	assert.ErrorContains(t, err, "NORAD 99999 not found")
}
