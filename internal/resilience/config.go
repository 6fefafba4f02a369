package resilience

import "time"

// FromFetchConfig builds a RetryConfig from fetch settings. Zero values keep
// the defaults.
func FromFetchConfig(maxRetries int, initialBackoffMs int) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxRetries > 0 {
		cfg.MaxAttempts = maxRetries
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	return cfg
}
