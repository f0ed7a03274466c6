package testevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/shinoda11/opsboard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	if err := logger.Init(logger.WithWriter(multiWriter)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Tee the stdlib logger too so http client internals land in the same file.
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test events tool.
func ShowHelp() {
	os.Stdout.WriteString(`Ops Board Event Test Tool
=========================

A concurrent tool that simulates store operations against a running
ops board service: forecasts, banded sales, prep, delivery, labor
shifts and quest chains, then reads back scores, awards, guardrail
status and the weekly report.

Usage:
  go run cmd/test-events/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -store string
        Store ID the synthetic events belong to (default "store-001")
  -days int
        Number of business days to simulate (default 7)
  -staff int
        Number of staff members on the roster (default 8)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated events (default: generated_events_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate a default week
  go run cmd/test-events/main.go

  # Two weeks for a bigger store
  go run cmd/test-events/main.go -days 14 -staff 20 -workers 16

  # Verbose run against another instance
  go run cmd/test-events/main.go -verbose -url http://localhost:8080
`)
}
