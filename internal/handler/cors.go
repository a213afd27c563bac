package handler

import (
	"net/http"

	"satnogs-proxy-go/internal/config"
)

// Fixed CORS header values. Only GET and OPTIONS are ever served, and the
// proxy accepts no request headers beyond content negotiation.
const (
	corsAllowHeaders  = "Content-Type, Accept"
	corsAllowMethods  = "GET, OPTIONS"
	corsExposeDefault = "Content-Type"
)

// CORSPolicy computes the header set added to every response, including all
// error paths and the OPTIONS preflight. The allow-origin value is resolved
// once at construction from the immutable config.
type CORSPolicy struct {
	allowOrigin string
}

// NewCORSPolicy derives the CORS policy from config: "*" in development,
// otherwise the configured allowed origin (falling back to "*").
func NewCORSPolicy(cfg *config.Config) CORSPolicy {
	return CORSPolicy{allowOrigin: cfg.CORS.AllowOrigin()}
}

// Apply sets the base CORS headers on a response.
func (p CORSPolicy) Apply(h http.Header) {
	h.Set("Access-Control-Allow-Origin", p.allowOrigin)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
}

// Expose sets Access-Control-Expose-Headers for non-preflight responses.
// Extra header names (e.g. a forwarded Link header) are appended to the
// always-present default.
func (p CORSPolicy) Expose(h http.Header, extra ...string) {
	value := corsExposeDefault
	for _, name := range extra {
		value += ", " + name
	}
	h.Set("Access-Control-Expose-Headers", value)
}
