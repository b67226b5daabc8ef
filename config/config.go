// Package config loads SDK settings from a file (YAML or JSON) with
// environment overrides, and watches the file so a rotated credential can be
// pushed into a live client without restarting.
package config

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Raxcore-dev/rax-ai-sdk/rax"
)

// Settings mirrors rax.Config in file form. Environment variables under the
// RAX prefix override file values (RAX_API_KEY, RAX_BASE_URL, ...).
type Settings struct {
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries     int           `mapstructure:"retries" yaml:"retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base" yaml:"backoff_base"`
}

// ClientConfig converts the settings into a client configuration.
func (s Settings) ClientConfig() rax.Config {
	return rax.Config{
		APIKey:      s.APIKey,
		BaseURL:     s.BaseURL,
		Timeout:     s.Timeout,
		Retries:     s.Retries,
		BackoffBase: s.BackoffBase,
	}
}

// EnvPrefix is the environment variable prefix bound by Load.
const EnvPrefix = "RAX"

var ErrAPIKeyRequired = errors.New("config: api_key required (file or RAX_API_KEY)")

// Config is a watched settings source. Get is safe for concurrent use.
type Config struct {
	v *viper.Viper

	mu       sync.RWMutex
	value    Settings
	watchers []func(old, new Settings)
}

// Option customizes Load.
type Option func(*Config)

// WithDefault overrides a built-in default value.
func WithDefault(key string, value any) Option {
	return func(c *Config) { c.v.SetDefault(key, value) }
}

// Load reads settings from path, applies env overrides, validates, and
// starts watching the file for changes.
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("base_url", rax.DefaultBaseURL)
	v.SetDefault("timeout", rax.DefaultTimeout)
	v.SetDefault("retries", rax.DefaultRetries)
	v.SetDefault("backoff_base", rax.DefaultBackoffBase)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	_ = v.BindEnv("api_key")

	c := &Config{v: v}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	val, err := unmarshalSettings(v)
	if err != nil {
		return nil, err
	}
	c.value = val

	c.watch()
	return c, nil
}

func unmarshalSettings(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return Settings{}, ErrAPIKeyRequired
	}
	return s, nil
}

// Get returns the current settings (concurrency-safe copy).
func (c *Config) Get() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// OnChange registers a callback invoked when the watched file produces a
// different valid Settings value. Typical use is rotating a live client's
// credential:
//
//	cfg.OnChange(func(old, new config.Settings) {
//		if old.APIKey != new.APIKey {
//			client.SetAPIKey(new.APIKey)
//		}
//	})
func (c *Config) OnChange(callback func(old, new Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

func (c *Config) watch() {
	var (
		debounceMu    sync.Mutex
		debounceTimer *time.Timer
	)

	// Editors often produce several fsnotify events per save; debounce so a
	// change is applied once.
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(100*time.Millisecond, c.reload)
		debounceMu.Unlock()
	})

	c.v.WatchConfig()
}

func (c *Config) reload() {
	c.mu.Lock()
	old := c.value

	if err := c.v.ReadInConfig(); err != nil {
		c.mu.Unlock()
		return
	}
	val, err := unmarshalSettings(c.v)
	if err != nil {
		// An invalid rewrite keeps the last good settings.
		c.mu.Unlock()
		return
	}
	if val == old {
		c.mu.Unlock()
		return
	}
	c.value = val
	watchers := make([]func(old, new Settings), len(c.watchers))
	copy(watchers, c.watchers)
	c.mu.Unlock()

	for _, cb := range watchers {
		cb(old, val)
	}
}
