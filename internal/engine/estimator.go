package engine

const (
	// latencySizeLimit bounds the sizes that count toward the latency
	// estimate; beyond 64 bytes transfer time starts to dominate.
	latencySizeLimit = 64
	// thresholdArmSize is the size from which the buffer threshold
	// detector starts comparing; below it send times are too small for
	// the ratio test to mean anything.
	thresholdArmSize = 1024
	// thresholdFactor is the relative send-time jump that signals the
	// transport switched from buffered to rendezvous sends.
	thresholdFactor = 1.5
)

// Estimates are the final derived values of a run. The Valid/Found
// flags distinguish "not available" from a spurious zero.
type Estimates struct {
	// LatencyUS is half the minimum small-message RTT, in microseconds.
	LatencyUS float64
	// LatencyValid is false when no size <= 64 bytes was swept.
	LatencyValid bool
	// BandwidthMBps is the maximum bandwidth observed across all sizes.
	BandwidthMBps float64
	// ThresholdBytes is the last size whose send completed without a
	// jump, i.e. the apparent transport buffering capacity.
	ThresholdBytes int
	// ThresholdFound is false when no send-time jump was observed
	// within the tested range.
	ThresholdFound bool
}

// Estimator folds the ordered stream of SizeStats into Estimates. Only
// running extrema are retained; the full sweep is never buffered.
type Estimator struct {
	minRTTUS   float64
	haveRTT    bool
	maxBWMBps  float64
	prevSendUS float64
	prevSize   int
	havePrev   bool
	threshold  int
	latched    bool
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Observe consumes one row. Rows must arrive in increasing size order,
// which is what the sweep produces.
func (e *Estimator) Observe(st SizeStats) {
	if st.Size <= latencySizeLimit {
		if !e.haveRTT || st.AvgRTTUS < e.minRTTUS {
			e.minRTTUS = st.AvgRTTUS
			e.haveRTT = true
		}
	}
	if st.BandwidthMBps > e.maxBWMBps {
		e.maxBWMBps = st.BandwidthMBps
	}
	// One-shot edge detector: the first size at or past the arming
	// point whose send time jumps past 1.5x its predecessor latches the
	// predecessor as the threshold. Later jumps are ignored; they tend
	// to reflect unrelated effects at large sizes. This deliberately
	// keeps the single-previous-value comparison with no smoothing so
	// results stay comparable with earlier tools using the same rule.
	if !e.latched && e.havePrev && st.Size >= thresholdArmSize {
		if st.AvgSendUS > e.prevSendUS*thresholdFactor {
			e.threshold = e.prevSize
			e.latched = true
		}
	}
	e.prevSendUS = st.AvgSendUS
	e.prevSize = st.Size
	e.havePrev = true
}

// Estimates returns the fold result so far.
func (e *Estimator) Estimates() Estimates {
	est := Estimates{
		BandwidthMBps:  e.maxBWMBps,
		ThresholdBytes: e.threshold,
		ThresholdFound: e.latched,
	}
	if e.haveRTT {
		est.LatencyUS = e.minRTTUS / 2
		est.LatencyValid = true
	}
	return est
}
