package transport

import "errors"

var (
	// ErrNotAcquired Release 调用次数多于 Acquire
	ErrNotAcquired = errors.New("registry released more times than acquired")
)
