package service

import (
	"errors"
	"strings"
	"testing"

	"satnogs-proxy-go/internal/model"
)

func TestParseRoute_Valid(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		wantType     model.APIType
		wantResidual string
	}{
		{"network single segment", "/api/network/observations", model.APINetwork, "/observations"},
		{"db nested segments", "/api/db/stations/123", model.APIDB, "/stations/123"},
		{"trailing slash tolerated", "/api/network/observations/", model.APINetwork, "/observations"},
		{"repeated slashes tolerated", "//api///db//transmitters", model.APIDB, "/transmitters"},
		{"deep residual", "/api/network/a/b/c/d", model.APINetwork, "/a/b/c/d"},
		{"exactly three segments", "/api/db/modes", model.APIDB, "/modes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := ParseRoute(tt.path)
			if err != nil {
				t.Fatalf("ParseRoute(%q) error = %v", tt.path, err)
			}
			if route.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", route.Type, tt.wantType)
			}
			if route.Residual != tt.wantResidual {
				t.Errorf("Residual = %q, want %q", route.Residual, tt.wantResidual)
			}
		})
	}
}

func TestParseRoute_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantMessage string
	}{
		{"root", "/", "Invalid API path structure"},
		{"bare api", "/api", "Invalid API path structure"},
		{"api type without residual", "/api/network", "Invalid API path structure"},
		{"api type without residual trailing slash", "/api/network/", "Invalid API path structure"},
		{"wrong first segment", "/foo/network/observations", "Invalid API path structure"},
		{"missing api prefix", "/network/observations", "Invalid API path structure"},
		{"unsupported type", "/api/unknown/foo", "API type 'unknown' is not supported"},
		{"case sensitive type", "/api/Network/observations", "API type 'Network' is not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoute(tt.path)
			if err == nil {
				t.Fatalf("ParseRoute(%q) expected error, got nil", tt.path)
			}
			var re *RouteError
			if !errors.As(err, &re) {
				t.Fatalf("ParseRoute(%q) error type = %T, want *RouteError", tt.path, err)
			}
			if !strings.Contains(re.Message, tt.wantMessage) {
				t.Errorf("message = %q, want substring %q", re.Message, tt.wantMessage)
			}
		})
	}
}

func TestParseRoute_Deterministic(t *testing.T) {
	// Routing is a pure function of the path: repeated calls agree.
	const path = "/api/db/satellites/44444"
	first, err := ParseRoute(path)
	if err != nil {
		t.Fatalf("ParseRoute() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := ParseRoute(path)
		if err != nil {
			t.Fatalf("ParseRoute() error = %v", err)
		}
		if got != first {
			t.Errorf("ParseRoute(%q) = %+v, want %+v", path, got, first)
		}
	}
}
