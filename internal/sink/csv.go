package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/NodePath81/pingsweep/pkg"
)

const csvHeader = "msg_size_bytes,avg_send_us,avg_recv_us,rtt_us,bandwidth_mbps"

// Textual stand-ins for estimates that could not be computed. They are
// deliberately words, not zeros: downstream tooling must be able to
// tell "unmeasured" from "measured as zero".
const (
	LatencyNotComputable = "not computable"
	ThresholdNotObserved = "not observed within tested range"
)

// CSVWriter streams sweep rows to a file in the layout the report
// tooling parses: one header, one row per size, then a comment-prefixed
// summary block.
type CSVWriter struct {
	w     *bufio.Writer
	c     io.Closer
	wrote bool
}

// NewCSVFile creates (truncating) the output file.
func NewCSVFile(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &CSVWriter{w: bufio.NewWriter(f), c: f}, nil
}

// NewCSV wraps an arbitrary writer, used by tests.
func NewCSV(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

// WriteStats appends one row, emitting the header first if needed.
func (c *CSVWriter) WriteStats(st pingsweep.SizeStats) error {
	if !c.wrote {
		if _, err := fmt.Fprintln(c.w, csvHeader); err != nil {
			return err
		}
		c.wrote = true
	}
	_, err := fmt.Fprintf(c.w, "%d,%.2f,%.2f,%.2f,%.2f\n",
		st.Size, st.AvgSendUS, st.AvgRecvUS, st.AvgRTTUS, st.BandwidthMBps)
	return err
}

// WriteSummary appends the trailing estimate block.
func (c *CSVWriter) WriteSummary(est pingsweep.Estimates) error {
	if est.LatencyValid {
		if _, err := fmt.Fprintf(c.w, "# Latency: %.2f us\n", est.LatencyUS); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(c.w, "# Latency: %s\n", LatencyNotComputable); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(c.w, "# Bandwidth: %.2f MB/s\n", est.BandwidthMBps); err != nil {
		return err
	}
	if est.ThresholdFound {
		if _, err := fmt.Fprintf(c.w, "# Buffer size: %d bytes\n", est.ThresholdBytes); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(c.w, "# Buffer size: %s\n", ThresholdNotObserved); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

func (c *CSVWriter) Close() error {
	if err := c.w.Flush(); err != nil {
		if c.c != nil {
			_ = c.c.Close()
		}
		return err
	}
	if c.c != nil {
		return c.c.Close()
	}
	return nil
}
