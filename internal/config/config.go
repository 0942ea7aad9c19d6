// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sink and snapshot selector values.
const (
	SinkMemory   = "memory"
	SinkPostgres = "postgres"
	SinkPubSub   = "pubsub"

	SnapshotOff   = "off"
	SnapshotLocal = "local"
	SnapshotGCS   = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Registry RegistryConfig `mapstructure:"registry"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Window   WindowConfig   `mapstructure:"window"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Ops      OpsConfig      `mapstructure:"ops"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RegistryConfig points the engine at the source site.
type RegistryConfig struct {
	HomeURL   string `mapstructure:"home_url"`
	SearchURL string `mapstructure:"search_url"`
	UserAgent string `mapstructure:"user_agent"`
	StateCode string `mapstructure:"state_code"`
}

// CrawlerConfig governs the crawl pipeline: concurrency, caps, politeness.
// All caps treat 0 as unlimited.
type CrawlerConfig struct {
	Prefixes         []string `mapstructure:"prefixes"`
	Concurrency      int      `mapstructure:"concurrency"`
	StatusPattern    string   `mapstructure:"status_pattern"`
	DetailsPerPage   int      `mapstructure:"details_per_page"`
	PagesPerPrefix   int      `mapstructure:"pages_per_prefix"`
	GlobalCap        int      `mapstructure:"global_cap"`
	StopStreak       int      `mapstructure:"stop_streak"`
	Headless         bool     `mapstructure:"headless"`
	NavTimeoutSec    int      `mapstructure:"nav_timeout_seconds"`
	BaseDelayMs      int      `mapstructure:"base_delay_ms"`
	JitterMs         int      `mapstructure:"jitter_ms"`
	FastPath         bool     `mapstructure:"fast_path"`
	FastPathMinBytes int      `mapstructure:"fast_path_min_bytes"`
	FetchTimeoutSec  int      `mapstructure:"fetch_timeout_seconds"`
}

// WindowConfig controls the harvest window and which record dates feed
// admission. Start/End (YYYY-MM-DD) pin the window exactly; when unset the
// window is derived from Days.
type WindowConfig struct {
	Days   int      `mapstructure:"days"`
	Start  string   `mapstructure:"start"`
	End    string   `mapstructure:"end"`
	Fields []string `mapstructure:"fields"`
}

// SinkConfig selects where admitted records go.
type SinkConfig struct {
	Kind      string `mapstructure:"kind"`
	DSN       string `mapstructure:"dsn"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// SnapshotConfig controls failure-page snapshots.
type SnapshotConfig struct {
	Mode   string `mapstructure:"mode"`
	Dir    string `mapstructure:"dir"`
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// OpsConfig controls the crawl-time operations HTTP endpoint.
type OpsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.home_url", "https://search.sunbiz.org")
	v.SetDefault("registry.search_url", "https://search.sunbiz.org/Inquiry/CorporationSearch/ByName")
	v.SetDefault("registry.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0 Safari/537.36")
	v.SetDefault("registry.state_code", "FL")
	v.SetDefault("crawler.prefixes", defaultPrefixes())
	v.SetDefault("crawler.concurrency", 8)
	v.SetDefault("crawler.status_pattern", `(?i)^\s*active\b`)
	v.SetDefault("crawler.details_per_page", 0)
	v.SetDefault("crawler.pages_per_prefix", 0)
	v.SetDefault("crawler.global_cap", 0)
	v.SetDefault("crawler.stop_streak", 0)
	v.SetDefault("crawler.headless", true)
	v.SetDefault("crawler.nav_timeout_seconds", 60)
	v.SetDefault("crawler.base_delay_ms", 600)
	v.SetDefault("crawler.jitter_ms", 250)
	v.SetDefault("crawler.fast_path", true)
	v.SetDefault("crawler.fast_path_min_bytes", 2048)
	v.SetDefault("crawler.fetch_timeout_seconds", 15)
	v.SetDefault("window.days", 90)
	v.SetDefault("window.fields", []string{"filing", "event_filed"})
	v.SetDefault("sink.kind", SinkMemory)
	v.SetDefault("snapshot.mode", SnapshotOff)
	v.SetDefault("snapshot.prefix", "snapshots")
	v.SetDefault("ops.enabled", false)
	v.SetDefault("ops.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Failing here is
// the only fatal error class: nothing crawls until configuration is sound.
func (c Config) Validate() error {
	if len(c.Crawler.Prefixes) == 0 {
		return fmt.Errorf("crawler.prefixes must not be empty")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Registry.HomeURL == "" || c.Registry.SearchURL == "" {
		return fmt.Errorf("registry.home_url and registry.search_url are required")
	}
	if _, err := regexp.Compile(c.Crawler.StatusPattern); err != nil {
		return fmt.Errorf("crawler.status_pattern: %w", err)
	}
	if c.Window.Days <= 0 {
		return fmt.Errorf("window.days must be > 0")
	}
	if (c.Window.Start == "") != (c.Window.End == "") {
		return fmt.Errorf("window.start and window.end must be set together")
	}
	if c.Window.Start != "" {
		start, err := time.Parse(windowDateLayout, c.Window.Start)
		if err != nil {
			return fmt.Errorf("window.start: %w", err)
		}
		end, err := time.Parse(windowDateLayout, c.Window.End)
		if err != nil {
			return fmt.Errorf("window.end: %w", err)
		}
		if end.Before(start) {
			return fmt.Errorf("window.end %s is before window.start %s", c.Window.End, c.Window.Start)
		}
	}
	switch c.Sink.Kind {
	case SinkMemory:
	case SinkPostgres:
		if c.Sink.DSN == "" {
			return fmt.Errorf("sink.dsn is required for the postgres sink")
		}
	case SinkPubSub:
		if c.Sink.ProjectID == "" || c.Sink.Topic == "" {
			return fmt.Errorf("sink.project_id and sink.topic are required for the pubsub sink")
		}
	default:
		return fmt.Errorf("sink.kind %q is not one of memory, postgres, pubsub", c.Sink.Kind)
	}
	switch c.Snapshot.Mode {
	case SnapshotOff:
	case SnapshotLocal:
		if c.Snapshot.Dir == "" {
			return fmt.Errorf("snapshot.dir is required for local snapshots")
		}
	case SnapshotGCS:
		if c.Snapshot.Bucket == "" {
			return fmt.Errorf("snapshot.bucket is required for gcs snapshots")
		}
	default:
		return fmt.Errorf("snapshot.mode %q is not one of off, local, gcs", c.Snapshot.Mode)
	}
	if c.Ops.Enabled && c.Ops.Port <= 0 {
		return fmt.Errorf("ops.port must be > 0 when the ops server is enabled")
	}
	return nil
}

const windowDateLayout = "2006-01-02"

// WindowRange returns the explicitly pinned window bounds. ok is false when
// the config leaves the window to be derived from Days. Call after Validate;
// unparseable dates never reach here.
func (c Config) WindowRange() (start, end time.Time, ok bool) {
	if c.Window.Start == "" || c.Window.End == "" {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse(windowDateLayout, c.Window.Start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse(windowDateLayout, c.Window.End)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// NavTimeout returns the per-navigation timeout as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Crawler.NavTimeoutSec) * time.Second
}

// BaseDelay returns the politeness base delay.
func (c Config) BaseDelay() time.Duration {
	return time.Duration(c.Crawler.BaseDelayMs) * time.Millisecond
}

// Jitter returns the politeness jitter bound.
func (c Config) Jitter() time.Duration {
	return time.Duration(c.Crawler.JitterMs) * time.Millisecond
}

// FetchTimeout returns the fast-path HTTP timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.FetchTimeoutSec) * time.Second
}

// defaultPrefixes sweeps the full alphanumeric name-space one character at a
// time.
func defaultPrefixes() []string {
	out := make([]string, 0, 36)
	for _, r := range "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
		out = append(out, string(r))
	}
	return out
}
