package tle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpaceTrack struct {
	logins  atomic.Int32
	paths   []string
	payload string
}

func (f *fakeSpaceTrack) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ajaxauth/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		if r.FormValue("password") != "secret" {
			w.Write([]byte(`{"Login":"Failed"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "chocolatechip", Value: "ok", Path: "/"})
		w.Write([]byte(`""`))
	})
	mux.HandleFunc("GET /basicspacedata/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("chocolatechip"); err != nil || c.Value != "ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.paths = append(f.paths, r.URL.Path)
		w.Write([]byte(f.payload))
	})
	return mux
}

func newTestSpaceTrack(t *testing.T, payload, password string) (*fakeSpaceTrack, *SpaceTrackClient) {
	t.Helper()
	fake := &fakeSpaceTrack{payload: payload}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client := NewSpaceTrackClient(server.URL, "user@example.com", password, testLogger)
	client.now = func() time.Time { return time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC) }
	return fake, client
}

func TestSpaceTrackHistoryForPastDay(t *testing.T) {
	fake, client := newTestSpaceTrack(t, issLine1+"\r\n"+issLine2+"\r\n", "secret")

	el, err := client.Elements(context.Background(), 25544, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), FormatTLE)
	require.NoError(t, err)
	assert.Equal(t, issLine1, el.Line1)

	require.Len(t, fake.paths, 1)
	assert.Equal(t,
		"/basicspacedata/query/class/gp_history/NORAD_CAT_ID/25544/EPOCH/2025-02-10--2025-02-11/orderby/EPOCH desc/limit/1/format/tle",
		fake.paths[0])
}

func TestSpaceTrackLatestForFutureDay(t *testing.T) {
	omm := `[{"OBJECT_NAME":"ISS (ZARYA)","TLE_LINE1":"` + issLine1 + `","TLE_LINE2":"` + issLine2 + `"}]`
	fake, client := newTestSpaceTrack(t, omm, "secret")

	el, err := client.Elements(context.Background(), 25544, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), FormatOMM)
	require.NoError(t, err)
	assert.Equal(t, FormatOMM, el.Format)

	require.Len(t, fake.paths, 1)
	assert.True(t, strings.Contains(fake.paths[0], "/class/gp/NORAD_CAT_ID/25544/"), fake.paths[0])
	assert.True(t, strings.HasSuffix(fake.paths[0], "/format/json"), fake.paths[0])
}

func TestSpaceTrackLoginOnce(t *testing.T) {
	fake, client := newTestSpaceTrack(t, issText, "secret")
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := client.Elements(context.Background(), 25544, day, FormatTLE)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fake.logins.Load())
}

func TestSpaceTrackLoginRejected(t *testing.T) {
	_, client := newTestSpaceTrack(t, issText, "wrong")
	_, err := client.Elements(context.Background(), 25544, time.Now(), FormatTLE)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestSpaceTrackEmptyResponse(t *testing.T) {
	_, client := newTestSpaceTrack(t, "[]", "secret")
	_, err := client.Elements(context.Background(), 99999, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), FormatOMM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "99999")
}
