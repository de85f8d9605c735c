package engine

import (
	"fmt"
	"time"
)

// Role selects which side of the exchange this process runs. It is fixed
// for the whole run and injected at construction so both roles can be
// exercised in-process against a test transport.
type Role int

const (
	RolePinger Role = iota
	RolePonger
)

func (r Role) String() string {
	switch r {
	case RolePonger:
		return "ponger"
	default:
		return "pinger"
	}
}

// ParseRole maps the config/flag spelling onto a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "pinger":
		return RolePinger, nil
	case "ponger":
		return RolePonger, nil
	default:
		return RolePinger, fmt.Errorf("unknown role %q", s)
	}
}

// Config defines one sweep run. Both peers must agree on every field;
// the values travel in the bootstrap handshake only indirectly, through
// identical configuration on both sides.
type Config struct {
	Role             Role
	MinMsgSize       int
	MaxMsgSize       int
	Iterations       int
	WarmupIterations int
}

// Sizes expands the geometric sweep: min, 2min, 4min, ..., max inclusive.
func Sizes(min, max int) []int {
	var sizes []int
	for size := min; size <= max; size *= 2 {
		sizes = append(sizes, size)
	}
	return sizes
}

// SampleSet accumulates timing totals for a single message size across
// the timed iterations. Warmup rounds never touch it. RTT is only
// meaningful on the pinger, which is the one side observing a full
// round trip.
type SampleSet struct {
	Iterations int
	TotalSend  time.Duration
	TotalRecv  time.Duration
	TotalRTT   time.Duration
}

// Add folds one timed round into the set.
func (s *SampleSet) Add(sm Sample) {
	s.Iterations++
	s.TotalSend += sm.Send
	s.TotalRecv += sm.Recv
	s.TotalRTT += sm.RTT
}

// Stats derives the per-size averages and bandwidth. The factor two in
// the bandwidth numerator accounts for the payload crossing the link
// twice per round trip, once each direction at the same size.
func (s *SampleSet) Stats(size int) SizeStats {
	st := SizeStats{Size: size}
	if s.Iterations == 0 {
		return st
	}
	n := float64(s.Iterations)
	st.AvgSendUS = float64(s.TotalSend.Nanoseconds()) / 1000 / n
	st.AvgRecvUS = float64(s.TotalRecv.Nanoseconds()) / 1000 / n
	st.AvgRTTUS = float64(s.TotalRTT.Nanoseconds()) / 1000 / n
	if st.AvgRTTUS > 0 {
		// bytes per microsecond == megabytes per second.
		st.BandwidthMBps = 2 * float64(size) / st.AvgRTTUS
	}
	return st
}

// SizeStats is one derived row of the sweep, in size order.
type SizeStats struct {
	Size          int
	AvgSendUS     float64
	AvgRecvUS     float64
	AvgRTTUS      float64
	BandwidthMBps float64
}

// StatsFunc receives each SizeStats row as soon as it is derived.
type StatsFunc func(SizeStats) error
