package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Extractor ExtractorConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080

	// Mode is the gin mode: "debug", "release", "test"; default: "release".
	// Debug mode also enables the diagnostics block in scrape responses.
	Mode string
}

// ScraperConfig controls the search-page fetcher.
type ScraperConfig struct {
	// BaseURL is the target storefront origin.
	BaseURL string // default: "https://www.amazon.com.br"

	// SearchPath is the search query template; %s receives the encoded keyword.
	SearchPath string // default: "/s?k=%s"

	// UserAgent is the impersonated desktop browser.
	UserAgent string

	// AttemptTimeout is the deadline for a single fetch attempt.
	AttemptTimeout time.Duration // default: 10s

	// MaxAttempts is the total number of fetch attempts (first try included).
	MaxAttempts int // default: 3

	// RetryBackoffBase scales the exponential backoff: the wait before
	// retry n is 2^n * RetryBackoffBase.
	RetryBackoffBase time.Duration // default: 1s

	// MaxBodyBytes caps how much of the response body is read.
	MaxBodyBytes int64 // default: 10 MiB
}

// ExtractorConfig controls product extraction from the results page.
type ExtractorConfig struct {
	// BaseURL is used to absolutize relative product and image URLs.
	BaseURL string

	// MaxResults caps how many candidate elements are examined.
	MaxResults int // default: 20

	// BlockedMarkers are phrases whose presence in the page text means the
	// request was answered with a captcha/denial page rather than results.
	BlockedMarkers []string

	// ReviewTokens are substrings that identify a review-count text node
	// (localized fragments, matched case-insensitively).
	ReviewTokens []string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// DefaultBlockedMarkers covers both the Portuguese storefront captcha page
// and the English automated-access interstitial.
var DefaultBlockedMarkers = []string{
	"Digite os caracteres",
	"não é um robô",
	"Type the characters you see",
	"To discuss automated access",
	"api-services-support@amazon.com",
}

// DefaultReviewTokens matches pt-BR review-count labels with English fallbacks.
var DefaultReviewTokens = []string{
	"avalia",
	"classifica",
	"rating",
	"review",
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	baseURL := envOr("SCRAPER_BASE_URL", "https://www.amazon.com.br")

	return &Config{
		Server: ServerConfig{
			Host: envOr("SCRAPER_HOST", "0.0.0.0"),
			Port: envIntOr("SCRAPER_PORT", 8080),
			Mode: envOr("SCRAPER_MODE", "release"),
		},
		Scraper: ScraperConfig{
			BaseURL:          baseURL,
			SearchPath:       envOr("SCRAPER_SEARCH_PATH", "/s?k=%s"),
			UserAgent:        envOr("SCRAPER_USER_AGENT", defaultUserAgent),
			AttemptTimeout:   envDurationOr("SCRAPER_ATTEMPT_TIMEOUT", 10*time.Second),
			MaxAttempts:      envIntOr("SCRAPER_MAX_ATTEMPTS", 3),
			RetryBackoffBase: envDurationOr("SCRAPER_RETRY_BACKOFF", time.Second),
			MaxBodyBytes:     int64(envIntOr("SCRAPER_MAX_BODY_BYTES", 10*1024*1024)),
		},
		Extractor: ExtractorConfig{
			BaseURL:        baseURL,
			MaxResults:     envIntOr("SCRAPER_MAX_RESULTS", 20),
			BlockedMarkers: envSliceOr("SCRAPER_BLOCKED_MARKERS", DefaultBlockedMarkers),
			ReviewTokens:   envSliceOr("SCRAPER_REVIEW_TOKENS", DefaultReviewTokens),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPER_LOG_LEVEL", "info"),
			Format: envOr("SCRAPER_LOG_FORMAT", "json"),
		},
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server mode must be debug, release, or test")
	}

	parsed, err := url.Parse(c.Scraper.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if !strings.Contains(c.Scraper.SearchPath, "%s") {
		return fmt.Errorf("search path must contain a %%s keyword placeholder")
	}
	if c.Scraper.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Scraper.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt timeout must be positive")
	}
	if c.Scraper.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.Scraper.RetryBackoffBase < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.Scraper.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}

	if c.Extractor.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive")
	}
	if len(c.Extractor.ReviewTokens) == 0 {
		return fmt.Errorf("review tokens cannot be empty")
	}

	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
