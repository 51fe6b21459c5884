package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// HTTPClient wraps http.Client with a timeout and a run id used to tag
// every request.
type HTTPClient struct {
	client *http.Client
	runID  string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration, runID string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		runID:  runID,
	}
}

// Get performs a GET request and decodes a 200 JSON body into v.
func (c *HTTPClient) Get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(requestIDHeader, c.runID)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url, requestID string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return b, nil
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeRejected
	outcomeFailed
)

// submitAssessments posts every input with a bounded number of workers.
// Individual failures are counted, not returned; only cancellation aborts.
func submitAssessments(ctx context.Context, config *Config, client *HTTPClient, inputs []model.AssessmentInput, stats *Stats) error {
	log.Printf("submitting %d assessments with %d workers", len(inputs), config.Workers)

	url := config.BaseURL + "/assess"

	var (
		submitted, accepted, rejected, failed atomic.Int64
		mu                                    sync.Mutex
		lastReport                            atomic.Int64
	)
	levels := make(map[string]int)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)

	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		requestID := client.runID + "-" + strconv.Itoa(i)
		g.Go(func() error {
			res, out := submitSingle(gctx, client, url, requestID, in, config.Verbose)
			submitted.Add(1)
			switch out {
			case outcomeAccepted:
				accepted.Add(1)
				mu.Lock()
				levels[string(res.RiskLevel)]++
				mu.Unlock()
			case outcomeRejected:
				rejected.Add(1)
			default:
				failed.Add(1)
			}

			now := time.Now().UnixNano()
			last := lastReport.Load()
			if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
				log.Printf("submitted %d/%d (accepted: %d, rejected: %d, failed: %d)",
					submitted.Load(), len(inputs), accepted.Load(), rejected.Load(), failed.Load())
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission cancelled: %w", err)
	}

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(accepted.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())
	stats.ByRiskLevel = levels

	logger.Get().Info(ctx, "assessment submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed))
	return nil
}

// submitSingle posts one assessment and classifies the response.
func submitSingle(ctx context.Context, client *HTTPClient, url, requestID string, in model.AssessmentInput, verbose bool) (model.AssessmentResult, outcome) {
	var res model.AssessmentResult

	resp, err := client.Post(ctx, url, requestID, in)
	if err != nil {
		if verbose {
			log.Printf("request %s failed: %v", requestID, err)
		}
		return res, outcomeFailed
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return res, outcomeFailed
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.Unmarshal(body, &res); err != nil {
			return res, outcomeFailed
		}
		return res, outcomeAccepted
	case resp.StatusCode == http.StatusBadRequest:
		if verbose {
			log.Printf("request %s rejected: %s", requestID, bytes.TrimSpace(body))
		}
		return res, outcomeRejected
	default:
		if verbose {
			log.Printf("request %s returned %d: %s", requestID, resp.StatusCode, bytes.TrimSpace(body))
		}
		return res, outcomeFailed
	}
}
