package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CacheConfig holds TTLs for the read-view caches. The list and active views
// are user-scoped and invalidated on every subscription write; the TTLs are a
// second line of defense for missed invalidation paths.
type CacheConfig struct {
	ListTTL   time.Duration `mapstructure:"listTTL"`
	ActiveTTL time.Duration `mapstructure:"activeTTL"`
	PlanTTL   time.Duration `mapstructure:"planTTL"`
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ListTTL:   5 * time.Minute,
		ActiveTTL: 10 * time.Minute,
		PlanTTL:   15 * time.Minute,
	}
}

// CacheConfigHolder serves the current cache TTL configuration and hot-reloads
// it when the config file changes.
type CacheConfigHolder struct {
	current atomic.Value // holds CacheConfig
}

func NewCacheConfigHolder() (*CacheConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("cache")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/subscriptions")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SUBSCRIPTIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCacheConfig()
	v.SetDefault("cache.listTTL", defaults.ListTTL)
	v.SetDefault("cache.activeTTL", defaults.ActiveTTL)
	v.SetDefault("cache.planTTL", defaults.PlanTTL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg CacheConfig
	if err := v.UnmarshalKey("cache", &cfg); err != nil {
		return nil, err
	}
	if err := validateCacheConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CacheConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CacheConfig
		if err := v.UnmarshalKey("cache", &updated); err != nil {
			log.Printf("[cache-config] reload failed: %v", err)
			return
		}
		if err := validateCacheConfig(updated); err != nil {
			log.Printf("[cache-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[cache-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticCacheConfigHolder returns a holder with fixed values, for tests.
func NewStaticCacheConfigHolder(cfg CacheConfig) *CacheConfigHolder {
	holder := &CacheConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *CacheConfigHolder) Get() CacheConfig {
	return h.current.Load().(CacheConfig)
}

func validateCacheConfig(cfg CacheConfig) error {
	if cfg.ListTTL <= 0 || cfg.ActiveTTL <= 0 || cfg.PlanTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	return nil
}
