package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/liftguard/internal/loadtest"
)

// Default configuration constants.
const (
	defaultAssessments = 500
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8000", "Base URL of the service")
		assessments = flag.Int("n", defaultAssessments, "Number of assessments to submit")
		workers     = flag.Int("workers", loadtest.DefaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", loadtest.DefaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Write the generated inputs to this JSON file")
		logFile     = flag.String("log", "", "Log file for test output (default: loadtest_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Log every rejected or failed request")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:     *baseURL,
		Assessments: *assessments,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
