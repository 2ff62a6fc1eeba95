package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/scrapers/mirror"
	"paperscrape/internal/scrapers/prizes"
	"paperscrape/pkg/configutil"
	"time"

	"dario.cat/mergo"
)

const DefaultPath = "paperscrape.json5"

type MirrorConfig struct {
	BaseUrl string `json:"base_url"`
	// TimeoutSeconds bounds a single request.
	TimeoutSeconds int `json:"timeout_seconds"`
	// RateLimitSeconds is the minimum spacing between the end of one lookup and the start of the next.
	RateLimitSeconds int    `json:"rate_limit_seconds"`
	UserAgent        string `json:"user_agent"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	// DumpDir, if set, receives every request/response the mirror client makes.
	DumpDir string `json:"dump_dir"`
}

func (c MirrorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c MirrorConfig) RateLimit() time.Duration {
	return time.Duration(c.RateLimitSeconds) * time.Second
}

type PrizesConfig struct {
	Url string `json:"url"`
	Csv string `json:"csv"`
}

type PathsConfig struct {
	Identifiers string `json:"identifiers"`
	OutputDir   string `json:"output_dir"`
	Csv         string `json:"csv"`
	// Database is optional, when set records are also written to this sqlite file or libsql url.
	Database string `json:"database"`
	Log      string `json:"log"`
}

type WatchConfig struct {
	Cron string `json:"cron"`
	// PerfStatsSeconds is the interval of process stat reports while watching, 0 disables them.
	PerfStatsSeconds int `json:"perf_stats_seconds"`
}

type Config struct {
	Mirror    MirrorConfig         `json:"mirror"`
	Prizes    PrizesConfig         `json:"prizes"`
	Paths     PathsConfig          `json:"paths"`
	Watch     WatchConfig          `json:"watch"`
	Telemetry telemetry.OtlpConfig `json:"telemetry"`
	Debug     bool                 `json:"debug"`
}

func Default() Config {
	return Config{
		Mirror: MirrorConfig{
			BaseUrl:          mirror.DefaultBaseUrl,
			TimeoutSeconds:   60,
			RateLimitSeconds: 10,
			UserAgent:        mirror.DefaultUserAgent,
		},
		Prizes: PrizesConfig{
			Url: prizes.DefaultListUrl,
			Csv: "nobel.csv",
		},
		Paths: PathsConfig{
			Identifiers: "dois.txt",
			OutputDir:   "downloads",
			Csv:         "doi_pdfs.csv",
			Log:         "scihub.log",
		},
		Watch: WatchConfig{
			Cron:             "@daily",
			PerfStatsSeconds: 60,
		},
	}
}

// Read reads the config at path (and its .local override) on top of the defaults, a field the
// files do not mention keeps its default. A missing file is not an error, it yields the defaults.
func Read(path string) (Config, error) {
	cfg, err := configutil.ReadConfig(path, Default())
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// Find is Read for a config named `name` in the working directory or the closest parent
// directory that has one.
func Find(name string) (Config, error) {
	cfg, path, err := configutil.ReadRecursively(name, Default())
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	slog.Info("using config", "path", path)
	return cfg, nil
}

// Override sets every non-zero field of `override` (typically built from command line flags)
// on the config.
func (c *Config) Override(override Config) error {
	err := mergo.Merge(c, override, mergo.WithOverride)
	if err != nil {
		return fmt.Errorf("override config: %w", err)
	}
	return nil
}
