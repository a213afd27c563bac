package handler

import (
	"net/http"
	"testing"

	"satnogs-proxy-go/internal/config"
)

func TestNewCORSPolicy_AllowOrigin(t *testing.T) {
	tests := []struct {
		name string
		cors config.CORSConfig
		want string
	}{
		{"development ignores configured origin", config.CORSConfig{Context: "development", AllowedOrigin: "https://app.example.org"}, "*"},
		{"dev short spelling", config.CORSConfig{Context: "dev", AllowedOrigin: "https://app.example.org"}, "*"},
		{"production uses configured origin", config.CORSConfig{Context: "production", AllowedOrigin: "https://app.example.org"}, "https://app.example.org"},
		{"production unconfigured falls back to star", config.CORSConfig{Context: "production"}, "*"},
		{"empty config falls back to star", config.CORSConfig{}, "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCORSPolicy(&config.Config{CORS: tt.cors})

			h := make(http.Header)
			p.Apply(h)

			if got := h.Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
			if got := h.Get("Access-Control-Allow-Headers"); got != "Content-Type, Accept" {
				t.Errorf("Allow-Headers = %q, want %q", got, "Content-Type, Accept")
			}
			if got := h.Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
				t.Errorf("Allow-Methods = %q, want %q", got, "GET, OPTIONS")
			}
		})
	}
}

func TestCORSPolicy_Expose(t *testing.T) {
	p := CORSPolicy{allowOrigin: "*"}

	h := make(http.Header)
	p.Expose(h)
	if got := h.Get("Access-Control-Expose-Headers"); got != "Content-Type" {
		t.Errorf("Expose-Headers = %q, want %q", got, "Content-Type")
	}

	p.Expose(h, "Link")
	if got := h.Get("Access-Control-Expose-Headers"); got != "Content-Type, Link" {
		t.Errorf("Expose-Headers = %q, want %q", got, "Content-Type, Link")
	}
}
