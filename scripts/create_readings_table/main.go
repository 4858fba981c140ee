package main

import (
	"fmt"
	"os"

	"biowatch-collector/internal/config"
	"biowatch-collector/internal/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS ppg_readings (
    id                  BIGSERIAL PRIMARY KEY,
    recorded_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    device              TEXT        NOT NULL,
    session_id          TEXT        NOT NULL,
    window_index        INT         NOT NULL,
    partial             BOOLEAN     NOT NULL DEFAULT FALSE,
    valid               BOOLEAN     NOT NULL,
    hr_bpm              INT         NOT NULL DEFAULT 0,
    rmssd_ms            DOUBLE PRECISION NOT NULL DEFAULT 0,
    sdnn_ms             DOUBLE PRECISION NOT NULL DEFAULT 0,
    spo2_pct            DOUBLE PRECISION NOT NULL DEFAULT 0,
    perfusion_index_x10 INT         NOT NULL DEFAULT 0,
    respiration_bpm     DOUBLE PRECISION NOT NULL DEFAULT 0,
    confidence_pct      INT         NOT NULL DEFAULT 0,
    mean_rr_ms          INT         NOT NULL DEFAULT 0,
    rr_intervals        JSONB       NOT NULL DEFAULT '[]',
    raw_snapshot        JSONB       NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_ppg_readings_session
    ON ppg_readings (session_id, window_index);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ppg_readings table created successfully")
}
