// Package config loads zarrlens settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/zarrlens/config.toml (or
// ~/.config/zarrlens/config.toml) unless --config names another path. Every
// key is optional:
//
//	[thumbnail]
//	size = 300
//	max_size = 2048
//	auto_boost = true
//
//	[classify]
//	compression_fallback = true
//
//	[viewer]
//	neuroglancer_base = "https://neuroglancer-demo.appspot.com/#!"
//	contrast_scale = 0.25
//
//	[cache]
//	backend = "redis"          # file, redis or none
//	redis_addr = "localhost:6379"
//	metadata_ttl = "10m"
//
//	[http]
//	timeout = "30s"
//	retry_attempts = 3
//
//	[server]
//	addr = ":8080"
//	allowed_schemes = ["http", "https"]
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/zarrlens/zarrlens/pkg/cache"
	"github.com/zarrlens/zarrlens/pkg/classify"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/httputil"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/thumbnail"
)

// AppName names the config and cache directories.
const AppName = "zarrlens"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Duration is a time.Duration written as a Go duration string ("10m").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full settings file.
type Config struct {
	Thumbnail ThumbnailConfig `toml:"thumbnail"`
	Classify  ClassifyConfig  `toml:"classify"`
	Viewer    ViewerConfig    `toml:"viewer"`
	Cache     CacheConfig     `toml:"cache"`
	HTTP      HTTPConfig      `toml:"http"`
	Server    ServerConfig    `toml:"server"`
}

type ThumbnailConfig struct {
	Size      int  `toml:"size"`
	MaxSize   int  `toml:"max_size"`
	AutoBoost bool `toml:"auto_boost"`
	Disabled  bool `toml:"disabled"`
}

type ClassifyConfig struct {
	ThumbnailSamples     int     `toml:"thumbnail_samples"`
	CropSize             int     `toml:"crop_size"`
	UniquenessThreshold  float64 `toml:"uniqueness_threshold"`
	ChunkSamples         int     `toml:"chunk_samples"`
	CompressionThreshold float64 `toml:"compression_threshold"`
	CompressionFallback  bool    `toml:"compression_fallback"`
}

type ViewerConfig struct {
	NeuroglancerBase string  `toml:"neuroglancer_base"`
	ContrastScale    float64 `toml:"contrast_scale"`
}

type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
	MetadataTTL   Duration `toml:"metadata_ttl"`
}

type HTTPConfig struct {
	Timeout       Duration          `toml:"timeout"`
	RetryAttempts int               `toml:"retry_attempts"`
	RetryDelay    Duration          `toml:"retry_delay"`
	Headers       map[string]string `toml:"headers"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`

	// AllowedSchemes are the dataset URL schemes API clients may request.
	// Local and cloud schemes expose the server's files and credentials.
	AllowedSchemes []string `toml:"allowed_schemes"`
}

// Default returns the built-in settings.
func Default() Config {
	c := Config{}
	_ = c.ValidateAndSetDefaults()
	return c
}

// ValidateAndSetDefaults fills unset values and rejects invalid ones.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Thumbnail.Size == 0 {
		c.Thumbnail.Size = thumbnail.DefaultSize
	}
	if c.Thumbnail.MaxSize == 0 {
		c.Thumbnail.MaxSize = thumbnail.DefaultMaxSize
	}
	if c.Thumbnail.Size < 0 || c.Thumbnail.Size > c.Thumbnail.MaxSize {
		return zerrors.New(zerrors.ErrCodeInvalidConfig,
			"thumbnail.size must be between 1 and max_size (%d)", c.Thumbnail.MaxSize)
	}

	if c.Classify.UniquenessThreshold < 0 || c.Classify.UniquenessThreshold > 1 {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "classify.uniqueness_threshold must be within [0, 1]")
	}
	if c.Classify.ThumbnailSamples < 0 || c.Classify.CropSize < 0 || c.Classify.ChunkSamples < 0 {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "classify sample counts must not be negative")
	}

	if c.Viewer.NeuroglancerBase == "" {
		c.Viewer.NeuroglancerBase = neuroglancer.DefaultNeuroglancerBase
	} else if err := zerrors.ValidateURL(c.Viewer.NeuroglancerBase); err != nil {
		return zerrors.Wrap(zerrors.ErrCodeInvalidConfig, err, "viewer.neuroglancer_base")
	}
	if c.Viewer.ContrastScale == 0 {
		c.Viewer.ContrastScale = neuroglancer.DefaultContrastScale
	}
	if c.Viewer.ContrastScale < 0 {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "viewer.contrast_scale must be positive")
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = BackendFile
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			c.Cache.RedisAddr = "localhost:6379"
		}
	default:
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "cache.backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.MetadataTTL.Duration == 0 {
		c.Cache.MetadataTTL.Duration = cache.MetadataTTL
	}

	if c.HTTP.Timeout.Duration == 0 {
		c.HTTP.Timeout.Duration = 30 * time.Second
	}
	if c.HTTP.RetryAttempts == 0 {
		c.HTTP.RetryAttempts = httputil.DefaultPolicy.Attempts
	}
	if c.HTTP.RetryDelay.Duration == 0 {
		c.HTTP.RetryDelay.Duration = httputil.DefaultPolicy.Delay
	}
	if c.HTTP.RetryAttempts < 0 || c.HTTP.Timeout.Duration < 0 || c.HTTP.RetryDelay.Duration < 0 {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "http settings must not be negative")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowedSchemes) == 0 {
		c.Server.AllowedSchemes = []string{"http", "https"}
	}
	for _, scheme := range c.Server.AllowedSchemes {
		if err := zerrors.ValidateDatasetURL(scheme + "://host/dataset"); err != nil {
			return zerrors.Wrap(zerrors.ErrCodeInvalidConfig, err, "server.allowed_schemes")
		}
	}
	return nil
}

// Dir returns the zarrlens config directory.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the default cache directory (~/.cache/zarrlens/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path. An empty path means DefaultPath, in
// which case a missing file yields the defaults; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	var c Config
	md, err := toml.DecodeFile(path, &c)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return Default(), nil
	case err != nil:
		return Config{}, zerrors.Wrap(zerrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, zerrors.New(zerrors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	if err := c.ValidateAndSetDefaults(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ThumbnailOptions maps [thumbnail] onto renderer options.
func (c Config) ThumbnailOptions() thumbnail.Options {
	return thumbnail.Options{
		Size:      c.Thumbnail.Size,
		MaxSize:   c.Thumbnail.MaxSize,
		AutoBoost: c.Thumbnail.AutoBoost,
	}
}

// ClassifyOptions maps [classify] onto classifier options.
func (c Config) ClassifyOptions() classify.Options {
	return classify.Options{
		ThumbnailSamples:     c.Classify.ThumbnailSamples,
		CropSize:             c.Classify.CropSize,
		UniquenessThreshold:  c.Classify.UniquenessThreshold,
		ChunkSamples:         c.Classify.ChunkSamples,
		CompressionThreshold: c.Classify.CompressionThreshold,
		CompressionFallback:  c.Classify.CompressionFallback,
	}
}

// ViewerOptions maps [viewer] onto state options.
func (c Config) ViewerOptions() neuroglancer.Options {
	return neuroglancer.Options{ContrastScale: c.Viewer.ContrastScale}
}

// ToolOptions maps [viewer] onto link options.
func (c Config) ToolOptions() neuroglancer.ToolOptions {
	return neuroglancer.ToolOptions{
		Options:          c.ViewerOptions(),
		NeuroglancerBase: c.Viewer.NeuroglancerBase,
	}
}

// RetryPolicy maps [http] onto a retry policy.
func (c Config) RetryPolicy() httputil.Policy {
	p := httputil.DefaultPolicy
	p.Attempts = c.HTTP.RetryAttempts
	p.Delay = c.HTTP.RetryDelay.Duration
	return p
}
