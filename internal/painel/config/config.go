// Package config loads the painel daemon configuration from a YAML file,
// PAINEL_* environment variables and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wrale/wrale-painel/internal/painel/layout"
)

// EnvPrefix prefixes every environment override, e.g. PAINEL_SERVER
const EnvPrefix = "PAINEL"

// Cache backends
const (
	CacheBolt  = "bolt"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds the daemon configuration
type Config struct {
	// Server is the backend base URL
	Server string `mapstructure:"server"`
	// Listen is the address of the local kiosk HTTP surface
	Listen string `mapstructure:"listen"`
	// StateDir holds the state database
	StateDir string `mapstructure:"state_dir"`
	// Preview mirrors frames to the terminal
	Preview bool `mapstructure:"preview"`

	Timings Timings         `mapstructure:"timings"`
	Layout  layout.Settings `mapstructure:"layout"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Playlog PlaylogConfig   `mapstructure:"playlog"`
	Log     LogConfig       `mapstructure:"log"`
}

// Timings holds the display cycle delays
type Timings struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PageInterval time.Duration `mapstructure:"page_interval"`
	FadeDelay    time.Duration `mapstructure:"fade_delay"`
	// ItemDuration is assumed for videos that declare no duration
	ItemDuration time.Duration `mapstructure:"item_duration"`
	// MediaGrace is added to a video's duration before it is abandoned
	MediaGrace time.Duration `mapstructure:"media_grace"`
	// ErrorDwell is the least time a failed playlist item holds the screen
	ErrorDwell time.Duration `mapstructure:"error_dwell"`
}

// CacheConfig selects where the last snapshot is kept
type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// PlaylogConfig configures the PostgreSQL play log
type PlaylogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
	Buffer  int    `mapstructure:"buffer"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:   "http://localhost:8000",
		Listen:   "127.0.0.1:8765",
		StateDir: defaultStateDir(),
		Timings: Timings{
			PollInterval: 60 * time.Second,
			PageInterval: 12 * time.Second,
			FadeDelay:    500 * time.Millisecond,
			ItemDuration: 15 * time.Second,
			MediaGrace:   5 * time.Second,
			ErrorDwell:   5 * time.Second,
		},
		Layout: layout.DefaultSettings(),
		Cache: CacheConfig{
			Backend:   CacheBolt,
			RedisAddr: "localhost:6379",
		},
		Playlog: PlaylogConfig{
			Buffer: 256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".painel"
	}
	return filepath.Join(home, ".painel")
}

// setDefaults registers every key so environment overrides are picked up
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server", d.Server)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("preview", d.Preview)

	v.SetDefault("timings.poll_interval", d.Timings.PollInterval)
	v.SetDefault("timings.page_interval", d.Timings.PageInterval)
	v.SetDefault("timings.fade_delay", d.Timings.FadeDelay)
	v.SetDefault("timings.item_duration", d.Timings.ItemDuration)
	v.SetDefault("timings.media_grace", d.Timings.MediaGrace)
	v.SetDefault("timings.error_dwell", d.Timings.ErrorDwell)

	v.SetDefault("layout.horizontal_capacity", d.Layout.HorizontalCapacity)
	v.SetDefault("layout.vertical_capacity", d.Layout.VerticalCapacity)
	v.SetDefault("layout.marquee_horizontal", d.Layout.MarqueeHorizontal)
	v.SetDefault("layout.marquee_vertical", d.Layout.MarqueeVertical)

	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)

	v.SetDefault("playlog.enabled", d.Playlog.Enabled)
	v.SetDefault("playlog.dsn", d.Playlog.DSN)
	v.SetDefault("playlog.buffer", d.Playlog.Buffer)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the configuration. An empty path searches painel.yaml in the
// working directory, $HOME/.painel and /etc/painel; a missing file is not
// an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("painel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultStateDir())
		v.AddConfigPath("/etc/painel")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL: %q", c.Server)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory is required")
	}

	if c.Timings.PollInterval < time.Second {
		return fmt.Errorf("poll interval must be at least 1s")
	}
	if c.Timings.PageInterval < 100*time.Millisecond {
		return fmt.Errorf("page interval must be at least 100ms")
	}
	if c.Timings.FadeDelay < 0 || c.Timings.FadeDelay >= c.Timings.PageInterval {
		return fmt.Errorf("fade delay must be between 0 and the page interval")
	}
	if c.Timings.ItemDuration <= 0 {
		return fmt.Errorf("item duration must be positive")
	}
	if c.Timings.ErrorDwell <= 0 {
		return fmt.Errorf("error dwell must be positive")
	}
	if c.Timings.MediaGrace < 0 {
		return fmt.Errorf("media grace must not be negative")
	}

	if c.Layout.HorizontalCapacity < 2 {
		return fmt.Errorf("invalid horizontal capacity: %d", c.Layout.HorizontalCapacity)
	}
	if c.Layout.VerticalCapacity < 1 {
		return fmt.Errorf("invalid vertical capacity: %d", c.Layout.VerticalCapacity)
	}
	if c.Layout.MarqueeHorizontal < 1 || c.Layout.MarqueeVertical < 1 {
		return fmt.Errorf("marquee thresholds must be positive")
	}

	switch c.Cache.Backend {
	case CacheBolt, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis cache requires cache.redis_addr")
		}
	default:
		return fmt.Errorf("unknown cache backend: %q", c.Cache.Backend)
	}

	if c.Playlog.Enabled && c.Playlog.DSN == "" {
		return fmt.Errorf("play log requires playlog.dsn")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}

	return nil
}

// YAML renders the effective configuration with readable durations.
// The Redis password and the play log DSN are masked.
func (c *Config) YAML() ([]byte, error) {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}

	doc := map[string]interface{}{
		"server":    c.Server,
		"listen":    c.Listen,
		"state_dir": c.StateDir,
		"preview":   c.Preview,
		"timings": map[string]string{
			"poll_interval": c.Timings.PollInterval.String(),
			"page_interval": c.Timings.PageInterval.String(),
			"fade_delay":    c.Timings.FadeDelay.String(),
			"item_duration": c.Timings.ItemDuration.String(),
			"media_grace":   c.Timings.MediaGrace.String(),
			"error_dwell":   c.Timings.ErrorDwell.String(),
		},
		"layout": map[string]int{
			"horizontal_capacity": c.Layout.HorizontalCapacity,
			"vertical_capacity":   c.Layout.VerticalCapacity,
			"marquee_horizontal":  c.Layout.MarqueeHorizontal,
			"marquee_vertical":    c.Layout.MarqueeVertical,
		},
		"cache": map[string]interface{}{
			"backend":        c.Cache.Backend,
			"redis_addr":     c.Cache.RedisAddr,
			"redis_password": mask(c.Cache.RedisPassword),
			"redis_db":       c.Cache.RedisDB,
		},
		"playlog": map[string]interface{}{
			"enabled": c.Playlog.Enabled,
			"dsn":     mask(c.Playlog.DSN),
			"buffer":  c.Playlog.Buffer,
		},
		"log": map[string]string{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	}
	return yaml.Marshal(doc)
}
