package xembed

import (
	"time"

	"auxmark.dev/pkg/auxmark/internal/detectors/fetch"
)

// LangAuto resolves the embed language from the site's Hugo config.
const LangAuto = "auto"

// Config holds the tweet_downloader settings.
type Config struct {
	Enabled         bool    `mapstructure:"enabled"`
	CacheMaxAgeDays int     `mapstructure:"cache_max_age_days"`
	Defang          bool    `mapstructure:"defang"`
	Lang            string  `mapstructure:"lang"`
	DataDir         string  `mapstructure:"data_dir"`
	MaxRetries      int     `mapstructure:"max_retries"`
	RetryDelay      float64 `mapstructure:"retry_delay"`
	RetryBackoff    float64 `mapstructure:"retry_backoff"`
	Timeout         float64 `mapstructure:"timeout"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		CacheMaxAgeDays: 30,
		Defang:          true,
		Lang:            LangAuto,
		DataDir:         "data/x_embeds",
		MaxRetries:      fetch.DefaultMaxRetries,
		RetryDelay:      fetch.DefaultRetryDelay.Seconds(),
		RetryBackoff:    fetch.DefaultBackoff,
		Timeout:         fetch.DefaultTimeout.Seconds(),
	}
}

func (c Config) cacheMaxAge() time.Duration {
	return time.Duration(c.CacheMaxAgeDays) * 24 * time.Hour
}

func (c Config) fetchOptions() fetch.Options {
	return fetch.Options{
		MaxRetries: c.MaxRetries,
		RetryDelay: seconds(c.RetryDelay),
		Backoff:    c.RetryBackoff,
		Timeout:    seconds(c.Timeout),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
