package track

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/star/spacetrace/internal/export"
	"github.com/star/spacetrace/internal/layer"
	"github.com/star/spacetrace/internal/metrics"
	"github.com/star/spacetrace/internal/tle"
)

// Options are the sampling and splitting parameters shared by every entry
// point.
type Options struct {
	StepMinutes int
	Split       SplitPolicy
	SplitCount  int
}

// Track is the result of one run.
type Track struct {
	Samples  []Sample
	Segments []orb.LineString
	Points   *layer.Layer
	Lines    *layer.Layer
}

// Generator runs the sample → segment → build pipeline.
type Generator struct {
	factory PropagatorFactory
	logger  *slog.Logger
}

// NewGenerator returns a Generator. A nil factory selects SGP4Factory.
func NewGenerator(factory PropagatorFactory, logger *slog.Logger) *Generator {
	if factory == nil {
		factory = SGP4Factory
	}
	return &Generator{factory: factory, logger: logger}
}

// LayerNames returns the point and line layer names for an element format.
func LayerNames(format tle.Format) (points, lines string) {
	points = "Orbital Track " + string(format)
	return points, points + " Line"
}

// Generate samples elems over day and builds both layers.
func (g *Generator) Generate(ctx context.Context, elems tle.Elements, day time.Time, opts Options) (*Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Split == "" {
		opts.Split = DefaultSplit
	}

	line1, line2, err := elems.Lines()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	prop, err := g.factory(line1, line2)
	if err != nil {
		return nil, err
	}

	samples, err := SampleDay(prop, day, opts.StepMinutes)
	if err != nil {
		return nil, err
	}
	segments, err := Segment(Points(samples), opts.Split, opts.SplitCount)
	if err != nil {
		return nil, err
	}

	pointName, lineName := LayerNames(elems.Format)
	points, err := PointLayer(samples, pointName)
	if err != nil {
		return nil, err
	}
	lines, err := LineLayer(BuildLineFeatures(segments, opts.Split), lineName)
	if err != nil {
		return nil, err
	}

	return &Track{Samples: samples, Segments: segments, Points: points, Lines: lines}, nil
}

// BuildLayers returns the in-memory point and line layers.
func (g *Generator) BuildLayers(ctx context.Context, elems tle.Elements, day time.Time, opts Options) (points, lines *layer.Layer, err error) {
	tr, err := g.run(ctx, "layers", elems, day, opts)
	if err != nil {
		return nil, nil, err
	}
	return tr.Points, tr.Lines, nil
}

// WriteFiles writes the point layer to pointPath and the line layer next to
// it (see export.LinePath). The format follows the extension of pointPath.
// A failure while writing lines leaves the point file in place.
func (g *Generator) WriteFiles(ctx context.Context, elems tle.Elements, day time.Time, opts Options, pointPath string) (string, string, error) {
	w, err := export.ForPath(pointPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInput, err)
	}

	tr, err := g.run(ctx, "files", elems, day, opts)
	if err != nil {
		return "", "", err
	}

	linePath := export.LinePath(pointPath)
	if err := w.Write(tr.Points, pointPath); err != nil {
		metrics.IncTrackError(ErrorKind(err))
		return "", "", fmt.Errorf("write points: %w", err)
	}
	if err := w.Write(tr.Lines, linePath); err != nil {
		metrics.IncTrackError(ErrorKind(err))
		return "", "", fmt.Errorf("write lines: %w", err)
	}

	g.logger.Info("track files written", "points", pointPath, "lines", linePath)
	return pointPath, linePath, nil
}

// Run is Generate with run logging and metrics. The HTTP service uses it to
// get segment counts alongside the layers.
func (g *Generator) Run(ctx context.Context, elems tle.Elements, day time.Time, opts Options) (*Track, error) {
	return g.run(ctx, "layers", elems, day, opts)
}

func (g *Generator) run(ctx context.Context, output string, elems tle.Elements, day time.Time, opts Options) (*Track, error) {
	runID := uuid.NewString()
	logger := g.logger.With("run_id", runID)
	logger.Debug("track run starting",
		"output", output,
		"date", Midnight(day).Format(time.DateOnly),
		"step_minutes", opts.StepMinutes,
		"split", opts.Split,
		"format", elems.Format,
	)

	start := time.Now()
	tr, err := g.Generate(ctx, elems, day, opts)
	if err != nil {
		kind := ErrorKind(err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = "canceled"
		}
		metrics.IncTrackError(kind)
		logger.Warn("track run failed", "kind", kind, "error", err)
		return nil, err
	}

	duration := time.Since(start)
	metrics.ObserveTrackGeneration(output, duration, len(tr.Samples))
	logger.Info("track run complete",
		"output", output,
		"samples", len(tr.Samples),
		"segments", len(tr.Segments),
		"duration_ms", duration.Milliseconds(),
	)
	return tr, nil
}

// ConvertPointsToLines reads a point shapefile back and writes the line
// shapefile built from its geometries, plus the .prj sidecar.
func (g *Generator) ConvertPointsToLines(pointShp, lineShp string, policy SplitPolicy, splitCount int) error {
	if policy == "" {
		policy = DefaultSplit
	}
	pts, err := export.ReadShapefile(pointShp)
	if err != nil {
		return err
	}
	if pts.Kind != layer.Point {
		return fmt.Errorf("%w: %s is not a point shapefile", ErrInput, pointShp)
	}

	coords := make([]orb.Point, 0, pts.Len())
	for _, f := range pts.Features {
		coords = append(coords, f.Geometry.(orb.Point))
	}
	segments, err := Segment(coords, policy, splitCount)
	if err != nil {
		return err
	}

	lines, err := LineLayer(BuildLineFeatures(segments, policy), pts.Name+"_line")
	if err != nil {
		return err
	}
	if err := (export.Shapefile{}).Write(lines, lineShp); err != nil {
		return err
	}
	g.logger.Info("point shapefile converted", "points", pointShp, "lines", lineShp, "segments", len(segments))
	return nil
}
