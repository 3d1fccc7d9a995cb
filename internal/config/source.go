package config

import (
	"fmt"
	"log/slog"

	"github.com/star/spacetrace/internal/tle"
)

// NewSource builds the configured element source wrapped in the memory and
// disk caches.
func NewSource(cfg SourceConfig, logger *slog.Logger) (*tle.CachedSource, error) {
	var upstream tle.Source
	switch cfg.Kind {
	case SourceCelesTrak:
		upstream = tle.NewFetcher(cfg.CelesTrakURL, logger)
	case SourceSpaceTrack:
		upstream = tle.NewSpaceTrackClient(cfg.SpaceTrack.BaseURL, cfg.SpaceTrack.User, cfg.SpaceTrack.Password, logger)
	default:
		return nil, fmt.Errorf("unknown element source %q", cfg.Kind)
	}

	var disk *tle.Cache
	if cfg.CacheDir != "" {
		disk = tle.NewCache(cfg.CacheDir, cfg.MaxFiles)
	}
	logger.Info("element source config",
		"kind", cfg.Kind,
		"cache_dir", cfg.CacheDir,
		"max_files", cfg.MaxFiles,
		"max_age_seconds", cfg.MaxAge.Seconds(),
	)
	return tle.NewCachedSource(upstream, tle.NewStore(), disk, cfg.MaxAge, logger), nil
}
