package pingsweep

import "time"

// SizeStats is one row of the sweep: timing averages and derived
// bandwidth for a single message size. All times are microseconds.
type SizeStats struct {
	// Size is the message size in bytes, identical both directions.
	Size int
	// AvgSendUS is the mean blocking-send time.
	AvgSendUS float64
	// AvgRecvUS is the mean blocking-receive time.
	AvgRecvUS float64
	// AvgRTTUS is the mean full round trip, pinger-observed.
	AvgRTTUS float64
	// BandwidthMBps is 2 x Size / AvgRTTUS, zero when AvgRTTUS is zero.
	BandwidthMBps float64
}

// Estimates are the final derived values of a run.
type Estimates struct {
	// LatencyUS is half the minimum RTT among sizes of at most 64
	// bytes. Only meaningful when LatencyValid is true.
	LatencyUS    float64
	LatencyValid bool
	// BandwidthMBps is the maximum bandwidth observed across all sizes.
	BandwidthMBps float64
	// ThresholdBytes is the apparent transport buffering capacity: the
	// last size whose send completed before the 1.5x jump. Only
	// meaningful when ThresholdFound is true.
	ThresholdBytes int
	ThresholdFound bool
}

// Results contains the complete output of a run. Only a pinger run
// carries rows and estimates; a ponger run records the session only.
type Results struct {
	// SessionID is the UUID agreed during the bootstrap handshake.
	SessionID string
	// Role is the role this process ran.
	Role string
	// Stats holds the per-size rows in increasing size order.
	Stats []SizeStats
	// Estimates are the final derived values.
	Estimates Estimates
	// Duration is the wall-clock duration of the entire run.
	Duration time.Duration
}

// StatsFunc receives each row as soon as the pinger derives it.
type StatsFunc func(SizeStats) error
