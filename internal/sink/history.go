package sink

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/NodePath81/pingsweep/pkg"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	started_at      TIMESTAMP NOT NULL,
	target          TEXT NOT NULL,
	min_msg_size    INTEGER NOT NULL,
	max_msg_size    INTEGER NOT NULL,
	iterations      INTEGER NOT NULL,
	latency_us      REAL,
	bandwidth_mbps  REAL,
	buffer_bytes    INTEGER
);
CREATE TABLE IF NOT EXISTS samples (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	msg_size_bytes  INTEGER NOT NULL,
	avg_send_us     REAL NOT NULL,
	avg_recv_us     REAL NOT NULL,
	rtt_us          REAL NOT NULL,
	bandwidth_mbps  REAL NOT NULL,
	PRIMARY KEY (run_id, msg_size_bytes)
);
`

// History persists completed runs to a SQLite database so successive
// sweeps against the same link can be compared after the fact. NULL
// estimate columns encode the "not available" cases.
type History struct {
	db    *sql.DB
	runID string
}

// OpenHistory opens (creating if needed) the history database and
// registers a new run row.
func OpenHistory(path, runID, target string, startedAt time.Time, minSize, maxSize, iterations int) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO runs (id, started_at, target, min_msg_size, max_msg_size, iterations)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, startedAt.UTC(), target, minSize, maxSize, iterations)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &History{db: db, runID: runID}, nil
}

func (h *History) WriteStats(st pingsweep.SizeStats) error {
	_, err := h.db.Exec(
		`INSERT INTO samples (run_id, msg_size_bytes, avg_send_us, avg_recv_us, rtt_us, bandwidth_mbps)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		h.runID, st.Size, st.AvgSendUS, st.AvgRecvUS, st.AvgRTTUS, st.BandwidthMBps)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (h *History) WriteSummary(est pingsweep.Estimates) error {
	var latency sql.NullFloat64
	if est.LatencyValid {
		latency = sql.NullFloat64{Float64: est.LatencyUS, Valid: true}
	}
	var threshold sql.NullInt64
	if est.ThresholdFound {
		threshold = sql.NullInt64{Int64: int64(est.ThresholdBytes), Valid: true}
	}
	_, err := h.db.Exec(
		`UPDATE runs SET latency_us = ?, bandwidth_mbps = ?, buffer_bytes = ? WHERE id = ?`,
		latency, est.BandwidthMBps, threshold, h.runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (h *History) Close() error {
	return h.db.Close()
}
