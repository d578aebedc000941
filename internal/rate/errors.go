package rate

import "errors"

var (
	// ErrRateLimited reports that the attempt budget for the current window is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport and server errors.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
