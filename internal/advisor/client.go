package advisor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campusgrid/timetable-api/internal/models"
)

// Client calls the external advisory service over HTTP. The advisor is a
// hint source only: callers must re-validate everything it returns, and any
// transport or decode failure surfaces as a plain error so the scheduler can
// rebuild without it.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *reportCache
	logger  *zap.Logger
}

// Config tunes the advisor client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	CacheTTL      time.Duration
	CacheCapacity int
}

// NewClient constructs an advisor client. logger may be nil.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		cache:   newReportCache(cfg.CacheTTL, cfg.CacheCapacity),
		logger:  logger,
	}
}

// Analyze submits the run context and returns the advisor's report. Results
// are memoized by payload digest so identical reruns skip the network call.
func (c *Client) Analyze(ctx context.Context, req models.AdvisoryRequest) (*models.AdvisoryReport, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("advisor base URL not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode advisory request: %w", err)
	}

	key := digest(payload)
	if report, ok := c.cache.Get(key); ok {
		c.logger.Debug("advisory cache hit", zap.String("year", req.Year), zap.Int("semester", req.Semester))
		return report, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build advisory request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call advisor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("advisor returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var report models.AdvisoryReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode advisory report: %w", err)
	}

	c.logger.Info("advisory analysis completed",
		zap.String("year", req.Year),
		zap.Int("semester", req.Semester),
		zap.Int("recommendations", len(report.Recommended)),
		zap.Duration("latency", time.Since(start)))

	c.cache.Put(key, report)
	return &report, nil
}

// InvalidateCache drops memoized reports, forcing fresh analysis.
func (c *Client) InvalidateCache() {
	c.cache.Clear()
}

func digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
