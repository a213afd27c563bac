// Package service implements the core proxy forwarding logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"satnogs-proxy-go/internal/client"
	"satnogs-proxy-go/internal/config"
	"satnogs-proxy-go/internal/model"
)

// ProxyService resolves routes to upstream targets and dispatches them.
type ProxyService struct {
	client      *client.SatNOGSClient
	logger      *slog.Logger
	networkBase string
	dbBase      string
}

// NewProxyService creates a ProxyService from the configured upstream bases.
func NewProxyService(c *client.SatNOGSClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	for _, t := range []struct {
		key string
		val string
	}{
		{"network", cfg.Upstream.Network.BaseURL},
		{"db", cfg.Upstream.DB.BaseURL},
	} {
		if _, err := url.Parse(t.val); err != nil {
			return nil, fmt.Errorf("parse upstream %s base_url: %w", t.key, err)
		}
	}

	return &ProxyService{
		client:      c,
		logger:      logger.With("component", "proxy_service"),
		networkBase: strings.TrimSuffix(cfg.Upstream.Network.BaseURL, "/"),
		dbBase:      strings.TrimSuffix(cfg.Upstream.DB.BaseURL, "/"),
	}, nil
}

// BaseURL returns the configured base URL for the given API type.
func (s *ProxyService) BaseURL(t model.APIType) string {
	if t == model.APIDB {
		return s.dbBase
	}
	return s.networkBase
}

// TargetURL builds the upstream URL for a route: base + residual, with the
// inbound query string forwarded verbatim — no renaming, no filtering.
func (s *ProxyService) TargetURL(route model.Route, rawQuery string) string {
	target := s.BaseURL(route.Type) + route.Residual
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// Forward dispatches a GET for the route to its upstream API. Upstream HTTP
// error statuses come back as ordinary responses; the returned error is
// always a *model.TransportError.
func (s *ProxyService) Forward(ctx context.Context, route model.Route, rawQuery string) (*model.UpstreamResponse, error) {
	target := s.TargetURL(route, rawQuery)

	s.logger.Debug("forwarding request",
		"api", string(route.Type),
		"residual", route.Residual,
	)

	resp, err := s.client.Get(ctx, route.Type, target)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}
	return resp, nil
}
