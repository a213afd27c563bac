package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"syscall"
	"testing"
	"time"

	"satnogs-proxy-go/internal/config"
	"satnogs-proxy-go/internal/model"
)

func testClient(timeoutSeconds int) *SatNOGSClient {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  timeoutSeconds,
			IdleConnections: 10,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSatNOGSClient(cfg, logger, nil)
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want %q", got, "application/json")
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := testClient(10)
	resp, err := c.Get(context.Background(), model.APINetwork, srv.URL+"/observations")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if string(resp.Body) != `{"status":"ok"}` {
		t.Errorf("Body = %q, want %q", resp.Body, `{"status":"ok"}`)
	}
}

func TestGet_ErrorStatusIsInspectable(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTeapot, http.StatusBadGateway} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			c := testClient(10)
			resp, err := c.Get(context.Background(), model.APIDB, srv.URL+"/x")
			if err != nil {
				t.Fatalf("Get() error = %v; status %d must be a normal outcome", err, status)
			}
			if resp.StatusCode != status {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, status)
			}
		})
	}
}

func TestGet_Unreachable(t *testing.T) {
	c := testClient(10)

	_, err := c.Get(context.Background(), model.APINetwork, "http://127.0.0.1:1/observations")
	if err == nil {
		t.Fatal("Get() expected error for unreachable host, got nil")
	}

	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T, want *model.TransportError", err)
	}
	if te.Kind != model.FailureUnreachable {
		t.Errorf("Kind = %v, want %v", te.Kind, model.FailureUnreachable)
	}
}

func TestGet_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := testClient(1)

	_, err := c.Get(context.Background(), model.APINetwork, srv.URL+"/slow")
	if err == nil {
		t.Fatal("Get() expected timeout error, got nil")
	}

	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T, want *model.TransportError", err)
	}
	if te.Kind != model.FailureTimeout {
		t.Errorf("Kind = %v, want %v", te.Kind, model.FailureTimeout)
	}
}

func TestClassify(t *testing.T) {
	timeoutErr := &url.Error{
		Op:  "Get",
		URL: "https://network.satnogs.org/api/observations",
		Err: &timeoutError{},
	}

	tests := []struct {
		name string
		err  error
		want model.FailureKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, model.FailureTimeout},
		{"wrapped deadline", fmt.Errorf("upstream: %w", context.DeadlineExceeded), model.FailureTimeout},
		{"net timeout", timeoutErr, model.FailureTimeout},
		{"dns error", &net.DNSError{Err: "no such host", Name: "network.satnogs.org"}, model.FailureUnreachable},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, model.FailureUnreachable},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), model.FailureUnreachable},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), model.FailureUnreachable},
		{"url error", &url.Error{Op: "Get", URL: "https://db.satnogs.org/api", Err: errors.New("tls handshake failure")}, model.FailureUnreachable},
		{"unclassified", errors.New("something else"), model.FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// timeoutError implements net.Error with Timeout() == true.
type timeoutError struct{}

func (*timeoutError) Error() string   { return "timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
