package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/star/spacetrace/internal/httputil"
	"github.com/star/spacetrace/internal/tle"
	"github.com/star/spacetrace/internal/track"
)

// trackResponse is the body of GET /api/v1/track/{norad_id}.
type trackResponse struct {
	NORADID      int                        `json:"norad_id"`
	Date         string                     `json:"date"`
	StepMinutes  int                        `json:"step_minutes"`
	Split        track.SplitPolicy          `json:"split"`
	Format       tle.Format                 `json:"format"`
	SampleCount  int                        `json:"sample_count"`
	SegmentCount int                        `json:"segment_count"`
	Points       *geojson.FeatureCollection `json:"points"`
	Lines        *geojson.FeatureCollection `json:"lines"`
}

// trackRequest is a parsed and validated track query.
type trackRequest struct {
	noradID int
	day     time.Time
	format  tle.Format
	opts    track.Options
}

func (q trackRequest) cacheKey() string {
	return fmt.Sprintf("%d|%s|%s|%d|%s|%d",
		q.noradID, q.day.Format(time.DateOnly), q.format, q.opts.StepMinutes, q.opts.Split, q.opts.SplitCount)
}

type trackHandler struct {
	deps       Deps
	logger     *slog.Logger
	limiter    *httputil.Limiter
	trustProxy bool
	now        func() time.Time
}

func (h *trackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q, err := h.parse(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := q.cacheKey()
	if body, ok := h.deps.Cache.Get(key); ok {
		writeBody(w, body, "HIT")
		return
	}

	ip := httputil.ClientIP(r, h.trustProxy)
	if !h.limiter.Acquire(ip) {
		writeError(w, http.StatusTooManyRequests, "too many concurrent track requests")
		return
	}
	defer h.limiter.Release(ip)

	elems, err := h.deps.Source.Elements(r.Context(), q.noradID, q.day, q.format)
	if err != nil {
		h.logger.Warn("element source failed", "norad_id", q.noradID, "error", err)
		writeError(w, http.StatusBadGateway, "element source: "+err.Error())
		return
	}

	tr, err := h.deps.Generator.Run(r.Context(), elems, q.day, q.opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	body, err := json.Marshal(trackResponse{
		NORADID:      q.noradID,
		Date:         q.day.Format(time.DateOnly),
		StepMinutes:  q.opts.StepMinutes,
		Split:        q.opts.Split,
		Format:       elems.Format,
		SampleCount:  len(tr.Samples),
		SegmentCount: len(tr.Segments),
		Points:       tr.Points.FeatureCollection(),
		Lines:        tr.Lines.FeatureCollection(),
	})
	if err != nil {
		h.logger.Error("encode track response", "norad_id", q.noradID, "error", err)
		writeError(w, http.StatusInternalServerError, "encode response")
		return
	}

	h.deps.Cache.Put(key, body)
	writeBody(w, body, "MISS")
}

func (h *trackHandler) parse(r *http.Request) (trackRequest, error) {
	var q trackRequest

	id, err := strconv.Atoi(r.PathValue("norad_id"))
	if err != nil || id < 1 {
		return q, errors.New("norad_id must be a positive integer")
	}
	q.noradID = id

	q.day = track.Midnight(h.now().UTC())
	if v := r.URL.Query().Get("date"); v != "" {
		if q.day, err = time.Parse(time.DateOnly, v); err != nil {
			return q, errors.New("date must be YYYY-MM-DD")
		}
	}

	q.opts = h.deps.Defaults
	if v := r.URL.Query().Get("step"); v != "" {
		step, err := strconv.Atoi(v)
		if err != nil || step < 1 {
			return q, errors.New("step must be a positive number of minutes")
		}
		q.opts.StepMinutes = step
	}

	if v := r.URL.Query().Get("split"); v != "" {
		if q.opts.Split, err = track.ParseSplitPolicy(v); err != nil {
			return q, err
		}
	} else if q.opts.Split == "" {
		q.opts.Split = track.DefaultSplit
	}

	if v := r.URL.Query().Get("count"); v != "" {
		if q.opts.SplitCount, err = strconv.Atoi(v); err != nil {
			return q, errors.New("count must be an integer")
		}
	}
	if q.opts.Split == track.SplitCustom && q.opts.SplitCount < 1 {
		return q, fmt.Errorf("%w: custom split needs count >= 1", track.ErrInput)
	}

	if q.format, err = tle.ParseFormat(r.URL.Query().Get("format")); err != nil {
		return q, err
	}
	return q, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, track.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, track.ErrPropagation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeBody(w http.ResponseWriter, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
