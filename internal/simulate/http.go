package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitBatches submits run batches concurrently using a worker pool
func submitBatches(ctx context.Context, config *Config, batches []Batch, stats *Stats) error {
	log.Printf("submitting %d runs with %d workers...", len(batches), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/rankings"

	var (
		accepted  int64
		duplicate int64
		rejected  int64
		submitted int64
	)

	batchChan := make(chan Batch, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for batch := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleBatch(ctx, client, url, batch)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					default:
						atomic.AddInt64(&rejected, 1)
					}

					if config.Verbose {
						log.Printf("submitted %s: %s", batch.RunID, result)
					}
				}
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- batch:
			}
		}
	}()

	wg.Wait()

	stats.RunsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RunsAccepted = int(atomic.LoadInt64(&accepted))
	stats.RunsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.RunsRejected = int(atomic.LoadInt64(&rejected))

	log.Printf(`run submission completed:
   Accepted: %d
   Duplicate: %d
   Rejected: %d
`, stats.RunsAccepted, stats.RunsDuplicate, stats.RunsRejected)

	return nil
}

// submitSingleBatch submits a single batch and classifies the outcome.
// Backpressure (429) gets one retry after a short pause.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, batch Batch) string {
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := client.Post(ctx, url, batch)
		if err != nil {
			return "failed"
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return "failed"
		}

		switch resp.StatusCode {
		case StatusAccepted:
			return "accepted"
		case StatusOK:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
				return "duplicate"
			}
			return "duplicate"
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return "failed"
			case <-time.After(CompletionPollInterval):
			}
			continue
		default:
			return "failed"
		}
	}
	return "failed"
}

// waitForRuns polls each submitted run until it leaves the pending state.
func waitForRuns(ctx context.Context, config *Config, batches []Batch, stats *Stats) (map[string]*RunResult, error) {
	log.Printf("waiting for %d runs to be ranked...", len(batches))

	client := newHTTPClient(config.Timeout)

	results := make(map[string]*RunResult, len(batches))
	var mu sync.Mutex
	var completed, failed int64

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				runID := batches[index].RunID
				result, err := pollRun(ctx, client, config.BaseURL, runID)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("run %s did not complete: %v", runID, err)
					}
					continue
				}

				mu.Lock()
				results[runID] = result
				mu.Unlock()

				if result.Status == "complete" {
					atomic.AddInt64(&completed, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.RunsCompleted = int(atomic.LoadInt64(&completed))
	stats.RunsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`ranking completed:
   Complete: %d
   Failed: %d
`, stats.RunsCompleted, stats.RunsFailed)

	return results, nil
}

// pollRun fetches a run until its status is terminal.
func pollRun(ctx context.Context, client *HTTPClient, baseURL, runID string) (*RunResult, error) {
	url := baseURL + "/rankings/" + runID
	deadline := time.Now().Add(CompletionPollTimeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != StatusOK {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var result RunResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if result.Status != "pending" {
			return &result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(CompletionPollInterval):
		}
	}
	return nil, fmt.Errorf("run %s still pending after %s", runID, CompletionPollTimeout)
}

// getLeaderboard retrieves the top N entries of the latest completed run.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Standing, error) {
	log.Printf("getting top %d leaderboard entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/leaderboard?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var leaderboard []Standing
	if err := json.Unmarshal(body, &leaderboard); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(leaderboard)
	log.Printf("retrieved %d leaderboard entries", len(leaderboard))

	return leaderboard, nil
}

// getRank retrieves a single competitor's standing in the latest run.
func getRank(ctx context.Context, client *HTTPClient, baseURL, name string) (Standing, error) {
	url := baseURL + "/rank/" + name

	resp, err := client.Get(ctx, url)
	if err != nil {
		return Standing{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Standing{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Standing{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Standing
	if err := json.Unmarshal(body, &entry); err != nil {
		return Standing{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return entry, nil
}
