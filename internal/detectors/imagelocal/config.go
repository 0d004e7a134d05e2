package imagelocal

import (
	"net/url"
	"strings"
	"time"

	"auxmark.dev/pkg/auxmark/internal/detectors/fetch"
)

// Config holds the image_localizer settings. An empty allowlist allows
// every host, as does the entry "*"; the blocklist always wins.
type Config struct {
	Enabled         bool     `mapstructure:"enabled"`
	MaxRetries      int      `mapstructure:"max_retries"`
	RetryDelay      float64  `mapstructure:"retry_delay"`
	RetryBackoff    float64  `mapstructure:"retry_backoff"`
	Timeout         float64  `mapstructure:"timeout"`
	Allowlist       []string `mapstructure:"allowlist"`
	AllowSubdomains bool     `mapstructure:"allow_subdomains"`
	Blocklist       []string `mapstructure:"blocklist"`
	BlockSubdomains bool     `mapstructure:"block_subdomains"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		MaxRetries:      fetch.DefaultMaxRetries,
		RetryDelay:      fetch.DefaultRetryDelay.Seconds(),
		RetryBackoff:    fetch.DefaultBackoff,
		Timeout:         fetch.DefaultTimeout.Seconds(),
		AllowSubdomains: true,
		BlockSubdomains: true,
	}
}

func (c Config) fetchOptions() fetch.Options {
	return fetch.Options{
		MaxRetries: c.MaxRetries,
		RetryDelay: time.Duration(c.RetryDelay * float64(time.Second)),
		Backoff:    c.RetryBackoff,
		Timeout:    time.Duration(c.Timeout * float64(time.Second)),
	}
}

// Permits reports whether images from rawURL may be localized.
func (c Config) Permits(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())

	if matchesDomain(host, c.Blocklist, c.BlockSubdomains) {
		return false
	}

	if len(c.Allowlist) == 0 {
		return true
	}

	return matchesDomain(host, c.Allowlist, c.AllowSubdomains)
}

func matchesDomain(host string, domains []string, subdomains bool) bool {
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}

		if domain == "*" {
			return true
		}

		if host == domain || (subdomains && strings.HasSuffix(host, "."+domain)) {
			return true
		}
	}

	return false
}
