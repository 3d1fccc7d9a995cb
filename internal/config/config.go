// Package config loads service and CLI settings from SPACETRACE_* environment
// variables and an optional config file named by SPACETRACE_CONFIG.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/star/spacetrace/internal/auth"
	"github.com/star/spacetrace/internal/cache"
	"github.com/star/spacetrace/internal/track"
)

// Source kinds.
const (
	SourceCelesTrak  = "celestrak"
	SourceSpaceTrack = "spacetrack"
)

// Config is the complete runtime configuration.
type Config struct {
	HTTP       HTTPConfig
	Log        LogConfig
	Auth       auth.Config
	Source     SourceConfig
	Track      TrackConfig
	TrackCache cache.Config
}

type HTTPConfig struct {
	Addr               string
	TrustProxy         bool
	MaxConcurrentPerIP int
}

type LogConfig struct {
	Level  slog.Level
	Format string // "json" or "text"
}

// SourceConfig selects and tunes the orbital element source.
type SourceConfig struct {
	Kind         string
	CelesTrakURL string
	SpaceTrack   SpaceTrackConfig
	CacheDir     string
	MaxFiles     int
	MaxAge       time.Duration
}

type SpaceTrackConfig struct {
	User     string
	Password string
	BaseURL  string
}

// TrackConfig holds pipeline defaults.
type TrackConfig struct {
	StepMinutes int
	Split       track.SplitPolicy
}

var defaults = map[string]any{
	"http.addr":                  ":8080",
	"http.trust_proxy":           "false",
	"http.max_concurrent_per_ip": "4",
	"log.level":                  "info",
	"log.format":                 "json",
	"auth.enabled":               "false",
	"auth.token":                 "",
	"source.kind":                SourceCelesTrak,
	"source.celestrak_url":       "https://celestrak.org/NORAD/elements/gp.php",
	"spacetrack.user":            "",
	"spacetrack.password":        "",
	"spacetrack.base_url":        "https://www.space-track.org",
	"cache.dir":                  "/tmp/spacetrace/elements",
	"cache.max_files":            "5",
	"cache.max_age":              "24h",
	"track.step_minutes":         "1",
	"track.split":                string(track.DefaultSplit),
	"track_cache.size":           "128",
	"track_cache.ttl":            "10m",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SPACETRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

// Load reads the configuration. Unparseable values are logged and replaced
// by their defaults; inconsistent settings are errors.
func Load(logger *slog.Logger) (Config, error) {
	v := newViper()
	if path := os.Getenv("SPACETRACE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		logger.Info("config file loaded", "path", path)
	}

	l := loader{v: v, logger: logger}
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:               v.GetString("http.addr"),
			TrustProxy:         l.boolean("http.trust_proxy"),
			MaxConcurrentPerIP: l.positiveInt("http.max_concurrent_per_ip"),
		},
		Log: LogConfig{
			Level:  l.level("log.level"),
			Format: l.oneOf("log.format", "json", "text"),
		},
		Auth: auth.Config{
			Enabled: l.boolean("auth.enabled"),
			Token:   v.GetString("auth.token"),
		},
		Source: SourceConfig{
			Kind:         l.oneOf("source.kind", SourceCelesTrak, SourceSpaceTrack),
			CelesTrakURL: v.GetString("source.celestrak_url"),
			SpaceTrack: SpaceTrackConfig{
				User:     v.GetString("spacetrack.user"),
				Password: v.GetString("spacetrack.password"),
				BaseURL:  v.GetString("spacetrack.base_url"),
			},
			CacheDir: v.GetString("cache.dir"),
			MaxFiles: l.positiveInt("cache.max_files"),
			MaxAge:   l.duration("cache.max_age"),
		},
		Track: TrackConfig{
			StepMinutes: l.positiveInt("track.step_minutes"),
			Split:       l.split("track.split"),
		},
		TrackCache: cache.Config{
			MaxEntries: l.positiveInt("track_cache.size"),
			TTL:        l.duration("track_cache.ttl"),
		},
	}

	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return cfg, errors.New("SPACETRACE_AUTH_TOKEN is required when auth is enabled")
	}
	if cfg.Source.Kind == SourceSpaceTrack && (cfg.Source.SpaceTrack.User == "" || cfg.Source.SpaceTrack.Password == "") {
		return cfg, errors.New("SPACETRACE_SPACETRACK_USER and SPACETRACE_SPACETRACK_PASSWORD are required for the spacetrack source")
	}
	return cfg, nil
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// loader parses raw values and falls back to defaults with a warning.
type loader struct {
	v      *viper.Viper
	logger *slog.Logger
}

func (l loader) fallback(key string, value any) string {
	d := fmt.Sprint(defaults[key])
	l.logger.Warn("invalid config value, using default", "key", key, "value", value, "default", d)
	return d
}

func (l loader) boolean(key string) bool {
	raw := l.v.GetString(key)
	b, err := strconv.ParseBool(raw)
	if err != nil {
		b, _ = strconv.ParseBool(l.fallback(key, raw))
	}
	return b
}

func (l loader) positiveInt(key string) int {
	raw := l.v.GetString(key)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n, _ = strconv.Atoi(l.fallback(key, raw))
	}
	return n
}

func (l loader) duration(key string) time.Duration {
	raw := l.v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(l.fallback(key, raw))
	}
	return d
}

func (l loader) oneOf(key string, allowed ...string) string {
	raw := strings.ToLower(strings.TrimSpace(l.v.GetString(key)))
	for _, a := range allowed {
		if raw == a {
			return a
		}
	}
	return l.fallback(key, raw)
}

func (l loader) level(key string) slog.Level {
	raw := l.v.GetString(key)
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		_ = lvl.UnmarshalText([]byte(l.fallback(key, raw)))
	}
	return lvl
}

func (l loader) split(key string) track.SplitPolicy {
	raw := l.v.GetString(key)
	p, err := track.ParseSplitPolicy(raw)
	if err != nil {
		p, _ = track.ParseSplitPolicy(l.fallback(key, raw))
	}
	return p
}
