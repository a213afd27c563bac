// Package client provides the upstream HTTP client for the SatNOGS APIs.
package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"satnogs-proxy-go/internal/config"
	"satnogs-proxy-go/internal/metrics"
	"satnogs-proxy-go/internal/model"
)

// SatNOGSClient issues GET requests to the upstream SatNOGS APIs.
type SatNOGSClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewSatNOGSClient creates a SatNOGSClient with connection pooling and the
// configured upstream timeout. The metrics parameter is optional; pass nil to
// disable upstream metrics recording.
func NewSatNOGSClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *SatNOGSClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &SatNOGSClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "satnogs_client"),
		metrics: m,
	}
}

// Get issues a GET to targetURL and reads the full response. Any HTTP status
// in [100,599] is returned as a normal UpstreamResponse; only transport-level
// problems produce an error, always a *model.TransportError carrying the
// failure classification.
func (c *SatNOGSClient) Get(ctx context.Context, apiType model.APIType, targetURL string) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, &model.TransportError{Kind: model.FailureOther, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("upstream request",
		"api", string(apiType),
		"url", req.URL.Redacted(),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(string(apiType)).Observe(duration)
	}

	if err != nil {
		return nil, &model.TransportError{Kind: Classify(err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{Kind: Classify(err), Err: err}
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(string(apiType), strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Classify maps a transport error to its failure kind. Timeouts are checked
// first because *url.Error also wraps them.
func Classify(err error) model.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return model.FailureTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.FailureUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return model.FailureUnreachable
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return model.FailureUnreachable
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return model.FailureUnreachable
	}

	return model.FailureOther
}
