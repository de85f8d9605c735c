package sink

import (
	"fmt"
	"io"

	"github.com/NodePath81/pingsweep/pkg"
)

// Console prints a human-readable progress table as the sweep advances,
// one line per completed size, and a final summary of the estimates.
type Console struct {
	w     io.Writer
	wrote bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) WriteStats(st pingsweep.SizeStats) error {
	if !c.wrote {
		if _, err := fmt.Fprintf(c.w, "%12s %14s %14s %14s %16s\n",
			"size", "avg send", "avg recv", "rtt", "bandwidth"); err != nil {
			return err
		}
		c.wrote = true
	}
	_, err := fmt.Fprintf(c.w, "%12d %11.2f us %11.2f us %11.2f us %10.2f MB/s\n",
		st.Size, st.AvgSendUS, st.AvgRecvUS, st.AvgRTTUS, st.BandwidthMBps)
	return err
}

func (c *Console) WriteSummary(est pingsweep.Estimates) error {
	if _, err := fmt.Fprintln(c.w); err != nil {
		return err
	}
	if est.LatencyValid {
		if _, err := fmt.Fprintf(c.w, "Latency:          %.2f us\n", est.LatencyUS); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(c.w, "Latency:          %s\n", LatencyNotComputable); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(c.w, "Bandwidth:        %.2f MB/s\n", est.BandwidthMBps); err != nil {
		return err
	}
	if est.ThresholdFound {
		_, err := fmt.Fprintf(c.w, "Buffer threshold: %d bytes\n", est.ThresholdBytes)
		return err
	}
	_, err := fmt.Fprintf(c.w, "Buffer threshold: %s\n", ThresholdNotObserved)
	return err
}
