package loadtest

import "time"

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Assessments int           // Number of assessments to submit
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated inputs
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Stats holds test statistics.
type Stats struct {
	RunID       string
	Generated   int
	Submitted   int
	Accepted    int
	Rejected    int
	Failed      int
	BaseTotal   int
	FinalTotal  int
	ByRiskLevel map[string]int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
