package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/liftguard/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the structured logger and mirrors progress lines
// to both console and file. If logFile is empty, a timestamped filename is
// generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		logFile = "loadtest_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Assessment Load Test
====================

Submits random valid assessments concurrently and checks the dashboard
reflects every accepted one.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -n int
        Number of assessments to submit (default 500)
  -workers int
        Number of concurrent workers (default 8)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the generated inputs to this JSON file
  -log string
        Log file for test output (default: loadtest_TIMESTAMP.log)
  -verbose
        Log every rejected or failed request
  -help
        Show this help message

Examples:
  go run ./cmd/loadtest -n 5000 -workers 32
  go run ./cmd/loadtest -url http://localhost:9000 -verbose
`)
}
