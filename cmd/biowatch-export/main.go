package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"biowatch-collector/internal/config"
	"biowatch-collector/internal/database"
	logpkg "biowatch-collector/internal/logger"
	"biowatch-collector/internal/report"
	"biowatch-collector/internal/repository"
)

// biowatch-export 把一个会话已入库的指标记录导出成 xlsx 报表
func main() {
	var (
		sessionID = flag.String("session", "", "session ID to export")
		out       = flag.String("out", "", "output file (default <session>.xlsx)")
	)
	flag.Parse()

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "Usage: biowatch-export -session <id> [-out report.xlsx]")
		os.Exit(1)
	}
	if *out == "" {
		*out = *sessionID + ".xlsx"
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logpkg.NewLogger(cfg.Log.Level, "console", "biowatch-export")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	repo := repository.NewReadingRepository(db, log)
	readings, err := repo.ListBySession(*sessionID)
	if err != nil {
		log.Fatal("Failed to load readings", zap.Error(err))
	}
	if len(readings) == 0 {
		log.Fatal("No readings found for session", zap.String("session_id", *sessionID))
	}

	data, err := report.GenerateSessionReport(*sessionID, readings)
	if err != nil {
		log.Fatal("Failed to generate report", zap.Error(err))
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal("Failed to write report", zap.Error(err))
	}

	log.Info("Report written",
		zap.String("session_id", *sessionID),
		zap.String("path", *out),
		zap.Int("readings", len(readings)),
	)
}
