package config

import "fmt"

// Listing strategies for nested applicant/policy reads.
const (
	// ListingStrategyFanOut issues one policies query per applicant.
	ListingStrategyFanOut = "fanout"
	// ListingStrategyAggregated materializes policies server-side in one query.
	ListingStrategyAggregated = "aggregated"
)

// ListingConfig selects how applicants are listed with their policies.
type ListingConfig struct {
	Strategy string `koanf:"strategy" validate:"omitempty,oneof=fanout aggregated"`

	// FanOutConcurrency bounds the number of in-flight policy lookups per
	// request. The pool size is still the global bound.
	FanOutConcurrency int `koanf:"fan_out_concurrency" validate:"min=0"`
}

// DefaultListingConfig returns the fan-out strategy with a small
// concurrency bound.
func DefaultListingConfig() *ListingConfig {
	return &ListingConfig{
		Strategy:          ListingStrategyFanOut,
		FanOutConcurrency: 4,
	}
}

// Validate normalizes empty values and rejects unknown strategies.
func (c *ListingConfig) Validate() error {
	if c.Strategy == "" {
		c.Strategy = ListingStrategyFanOut
	}
	if c.Strategy != ListingStrategyFanOut && c.Strategy != ListingStrategyAggregated {
		return fmt.Errorf("invalid listing strategy: %s (must be one of: fanout, aggregated)", c.Strategy)
	}
	if c.FanOutConcurrency <= 0 {
		c.FanOutConcurrency = DefaultListingConfig().FanOutConcurrency
	}
	return nil
}

// RateLimitConfig controls the in-memory per-IP request limiter.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// DefaultRateLimitConfig enables a generous limit suited for an internal tool.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 20,
		Burst:             40,
	}
}

// Validate rejects a limiter that would block every request.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit requests_per_second must be positive")
	}
	if c.Burst < 0 {
		return fmt.Errorf("rate_limit burst must be non-negative")
	}
	return nil
}
