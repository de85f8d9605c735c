package sink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/NodePath81/pingsweep/pkg"
)

func TestCSVRowsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSV(&buf)

	rows := []pingsweep.SizeStats{
		{Size: 1, AvgSendUS: 10.5, AvgRecvUS: 10.5, AvgRTTUS: 21, BandwidthMBps: 0.1},
		{Size: 2, AvgSendUS: 10.5, AvgRecvUS: 10.5, AvgRTTUS: 21, BandwidthMBps: 0.19},
	}
	for _, r := range rows {
		if err := w.WriteStats(r); err != nil {
			t.Fatalf("write stats: %v", err)
		}
	}
	err := w.WriteSummary(pingsweep.Estimates{
		LatencyUS:      10.5,
		LatencyValid:   true,
		BandwidthMBps:  123.45,
		ThresholdBytes: 65536,
		ThresholdFound: true,
	})
	if err != nil {
		t.Fatalf("write summary: %v", err)
	}

	want := strings.Join([]string{
		"msg_size_bytes,avg_send_us,avg_recv_us,rtt_us,bandwidth_mbps",
		"1,10.50,10.50,21.00,0.10",
		"2,10.50,10.50,21.00,0.19",
		"# Latency: 10.50 us",
		"# Bandwidth: 123.45 MB/s",
		"# Buffer size: 65536 bytes",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("csv output:\n%s\nwant:\n%s", got, want)
	}
}

func TestCSVSummaryUnavailableEstimates(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSV(&buf)

	if err := w.WriteStats(pingsweep.SizeStats{Size: 128, AvgSendUS: 5, AvgRecvUS: 5, AvgRTTUS: 10, BandwidthMBps: 25.6}); err != nil {
		t.Fatalf("write stats: %v", err)
	}
	if err := w.WriteSummary(pingsweep.Estimates{BandwidthMBps: 25.6}); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# Latency: not computable\n") {
		t.Fatalf("missing latency placeholder:\n%s", out)
	}
	if !strings.Contains(out, "# Buffer size: not observed within tested range\n") {
		t.Fatalf("missing threshold placeholder:\n%s", out)
	}
}

func TestCSVHeaderWrittenOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSV(&buf)
	for i := 0; i < 3; i++ {
		if err := w.WriteStats(pingsweep.SizeStats{Size: 1 << i}); err != nil {
			t.Fatalf("write stats: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := strings.Count(buf.String(), "msg_size_bytes"); n != 1 {
		t.Fatalf("header written %d times", n)
	}
}
