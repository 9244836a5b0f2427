package collecting

import "time"

const (
	jiffiesPerSecond  = 100
	defaultRetryDelay = 10 * time.Millisecond
)
