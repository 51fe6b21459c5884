package loadtest

import "time"

// Worker configuration constants.
const (
	DefaultWorkers = 8
	DefaultTimeout = 30 * time.Second
)

// Reporting constants.
const (
	PercentageMultiplier = 100
	progressInterval     = time.Second
	recentCheckLimit     = 10
)
