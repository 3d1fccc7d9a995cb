package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	rec := httptest.NewRecorder()
	Readyz(nil)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("nil check: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	Readyz(func() error { return errors.New("cache dir not writable") })(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing check: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cache dir not writable") {
		t.Errorf("body %q does not carry the reason", rec.Body.String())
	}
}
