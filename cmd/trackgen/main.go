// Command trackgen writes or prints the one-day ground track of a satellite.
//
//	trackgen -sat 25544 -date 2025-02-14 -step 1 -out iss.shp
//	trackgen -tle-file iss.tle -split custom -count 4 > iss.geojson
//	trackgen -convert iss.shp -split none
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/star/spacetrace/internal/config"
	"github.com/star/spacetrace/internal/export"
	"github.com/star/spacetrace/internal/tle"
	"github.com/star/spacetrace/internal/track"
)

func main() {
	boot := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg, err := config.Load(boot)
	if err != nil {
		boot.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], cfg, logger, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Error("trackgen failed", "kind", track.ErrorKind(err), "error", err)
		os.Exit(1)
	}
}

type options struct {
	sat          int
	date         string
	step         int
	out          string
	split        string
	count        int
	format       string
	tleFile      string
	saveElements bool
	convert      string
}

func parseFlags(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("trackgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&o.sat, "sat", 0, "NORAD catalog number")
	fs.StringVar(&o.date, "date", time.Now().UTC().Format(time.DateOnly), "UTC day to sample, YYYY-MM-DD")
	fs.IntVar(&o.step, "step", cfg.Track.StepMinutes, "sampling step in minutes")
	fs.StringVar(&o.out, "out", "", "point output path (.shp, .geojson, .json or .kml); empty prints GeoJSON to stdout")
	fs.StringVar(&o.split, "split", string(cfg.Track.Split), "split policy: none, antimeridian or custom")
	fs.IntVar(&o.count, "count", 0, "number of segments for -split custom")
	fs.StringVar(&o.format, "format", string(tle.FormatTLE), "element data format: TLE or OMM")
	fs.StringVar(&o.tleFile, "tle-file", "", "read elements from a local TLE or OMM JSON file")
	fs.BoolVar(&o.saveElements, "save-elements", false, "save the raw elements next to -out")
	fs.StringVar(&o.convert, "convert", "", "build a line shapefile from an existing point shapefile")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("%w: unexpected arguments %v", track.ErrInput, fs.Args())
	}
	return o, nil
}

func run(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}
	policy, err := track.ParseSplitPolicy(o.split)
	if err != nil {
		return err
	}
	gen := track.NewGenerator(nil, logger)

	if o.convert != "" {
		out := o.out
		if out == "" {
			out = export.LinePath(o.convert)
		}
		if err := gen.ConvertPointsToLines(o.convert, out, policy, o.count); err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
		return nil
	}

	if o.sat <= 0 && o.tleFile == "" {
		return fmt.Errorf("%w: -sat or -tle-file is required", track.ErrInput)
	}
	if o.saveElements && o.out == "" {
		return fmt.Errorf("%w: -save-elements needs -out", track.ErrInput)
	}
	day, err := time.Parse(time.DateOnly, o.date)
	if err != nil {
		return fmt.Errorf("%w: -date must be YYYY-MM-DD: %v", track.ErrInput, err)
	}
	format, err := tle.ParseFormat(o.format)
	if err != nil {
		return fmt.Errorf("%w: %w", track.ErrInput, err)
	}

	var src tle.Source
	if o.tleFile != "" {
		src = tle.NewFileSource(o.tleFile, logger)
	} else if src, err = config.NewSource(cfg.Source, logger); err != nil {
		return err
	}

	elems, err := src.Elements(ctx, o.sat, day, format)
	if err != nil {
		if errors.Is(err, tle.ErrMalformed) {
			return fmt.Errorf("%w: %w", track.ErrInput, err)
		}
		return fmt.Errorf("fetch elements: %w", err)
	}

	opts := track.Options{StepMinutes: o.step, Split: policy, SplitCount: o.count}
	if o.out == "" {
		points, lines, err := gen.BuildLayers(ctx, elems, day, opts)
		if err != nil {
			return err
		}
		return json.NewEncoder(stdout).Encode(map[string]any{
			"points": points.FeatureCollection(),
			"lines":  lines.FeatureCollection(),
		})
	}

	if o.saveElements {
		if err := saveElements(elems, o.out); err != nil {
			return err
		}
	}
	pointPath, linePath, err := gen.WriteFiles(ctx, elems, day, opts, o.out)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, pointPath)
	fmt.Fprintln(stdout, linePath)
	return nil
}

// saveElements writes the raw element payload beside out as
// <name>_elements.txt, or .json for OMM.
func saveElements(elems tle.Elements, out string) error {
	ext := ".txt"
	if elems.Format == tle.FormatOMM {
		ext = ".json"
	}
	path := strings.TrimSuffix(out, filepath.Ext(out)) + "_elements" + ext

	data := elems.Raw
	if len(data) == 0 {
		data = []byte(elems.Name + "\n" + elems.Line1 + "\n" + elems.Line2 + "\n")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save elements: %w", err)
	}
	return nil
}
