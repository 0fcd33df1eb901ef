package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/finsightlabs/finsight/internal/infrastructure/resilience"
)

const responseBodyLimit = 1 << 20

// toolHTTPClient is the shared outbound client for all tools: rate
// limited per upstream and retried through the resilience executor.
type toolHTTPClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	operation  string
}

func newToolHTTPClient(operation string, requestsPerSecond float64, executor *resilience.Executor) *toolHTTPClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &toolHTTPClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		executor:   executor,
		operation:  operation,
	}
}

func (c *toolHTTPClient) getJSON(ctx context.Context, url string, out any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.operation, err)
	}
	return nil
}

func (c *toolHTTPClient) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", c.operation, err)
	}

	var body []byte
	call := func(callCtx context.Context) error {
		var err error
		body, err = c.doGet(callCtx, url)
		return err
	}

	if c.executor != nil {
		err := c.executor.Execute(ctx, "tools."+c.operation, call, classifyToolError)
		return body, err
	}
	return body, call(ctx)
}

func (c *toolHTTPClient) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.operation, err)
	}
	req.Header.Set("User-Agent", "finsight/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &toolStatusError{
			Operation:  c.operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(preview)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.operation, err)
	}
	return body, nil
}

type toolStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *toolStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s status: %s: %s", e.Operation, e.Status, e.Body)
}

func classifyToolError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *toolStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
