package pricefeed

import "time"

const (
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// Backoff returns the reconnect delay for the given attempt: 1s doubling,
// capped at 60s.
func Backoff(retryCount int) time.Duration {
	// 2^6 = 64s is already past the cap; also keeps the shift from overflowing
	if retryCount > 6 {
		return maxDelay
	}
	if retryCount < 0 {
		retryCount = 0
	}
	delay := baseDelay << uint(retryCount)
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
