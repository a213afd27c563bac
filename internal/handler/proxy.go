package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"satnogs-proxy-go/internal/model"
	"satnogs-proxy-go/internal/service"
)

// errorBody is the JSON shape of every synthesized error response.
// UpstreamStatus is only set when an upstream HTTP error is passed through.
type errorBody struct {
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

// ProxyHandler serves the /api/{network,db} surface: it gates the method,
// parses the route, dispatches upstream, and translates the outcome into a
// browser-safe response. It holds no per-request state.
type ProxyHandler struct {
	service *service.ProxyService
	cors    CORSPolicy
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, cors CORSPolicy, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		cors:    cors,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle processes one inbound request end to end.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()
	header := c.Response().Header()

	// Every response carries the CORS headers, error paths included.
	h.cors.Apply(header)

	// Method gate: preflight short-circuits with the base CORS headers only.
	switch req.Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusNoContent)
	case http.MethodGet:
	default:
		h.cors.Expose(header)
		return c.JSON(http.StatusMethodNotAllowed, errorBody{
			Message: fmt.Sprintf("Method %s Not Allowed", req.Method),
		})
	}

	h.cors.Expose(header)

	route, err := service.ParseRoute(req.URL.Path)
	if err != nil {
		var re *service.RouteError
		if errors.As(err, &re) {
			h.logger.Debug("rejected path", "path", req.URL.Path)
			return c.JSON(http.StatusNotFound, errorBody{Message: re.Message})
		}
		return c.JSON(http.StatusNotFound, errorBody{Message: "Not Found"})
	}

	resp, err := h.service.Forward(req.Context(), route, req.URL.RawQuery)
	if err != nil {
		return h.translateFailure(c, err)
	}

	return h.translateResponse(c, resp)
}

// translateFailure maps a transport-level upstream failure to 504/502/500.
// The raw error is logged for diagnostics but never returned to the caller.
func (h *ProxyHandler) translateFailure(c echo.Context, err error) error {
	path := c.Request().URL.Path

	h.logger.Error("upstream transport failure",
		"err", err,
		"path", path,
	)

	var te *model.TransportError
	if errors.As(err, &te) {
		switch te.Kind {
		case model.FailureTimeout:
			return c.JSON(http.StatusGatewayTimeout, errorBody{
				Message: fmt.Sprintf("Gateway Timeout: No timely response from SatNOGS API for %s.", path),
			})
		case model.FailureUnreachable:
			return c.JSON(http.StatusBadGateway, errorBody{
				Message: fmt.Sprintf("Bad Gateway: Error communicating with SatNOGS API for %s.", path),
			})
		}
	}

	return c.JSON(http.StatusInternalServerError, errorBody{
		Message: fmt.Sprintf("Internal Server Error processing the request for %s.", path),
	})
}

// translateResponse turns an upstream reply into the outbound response.
// Error statuses keep their code but get a synthesized JSON body; success
// statuses pass the body through, re-serialized when it is JSON.
func (h *ProxyHandler) translateResponse(c echo.Context, resp *model.UpstreamResponse) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return c.JSON(resp.StatusCode, errorBody{
			Message:        upstreamErrorMessage(resp.StatusCode),
			UpstreamStatus: resp.StatusCode,
		})
	}

	header := c.Response().Header()

	// A pagination Link header is forwarded unchanged and exposed so that
	// browser code can read it.
	if link := resp.Header.Get("Link"); link != "" {
		header.Set("Link", link)
		h.cors.Expose(header, "Link")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := resp.Body
	if strings.Contains(contentType, "application/json") {
		if normalized, err := reserializeJSON(resp.Body); err != nil {
			h.logger.Warn("upstream body is not valid JSON; passing through",
				"err", err,
				"path", c.Request().URL.Path,
			)
		} else {
			body = normalized
		}
	}

	return c.Blob(resp.StatusCode, contentType, body)
}

// upstreamErrorMessage derives the caller-facing message for an upstream
// HTTP error status.
func upstreamErrorMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Not Found: the requested resource was not found on the upstream API for the given type"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "Unauthorized: access denied by the upstream API for the given type"
	default:
		return fmt.Sprintf("Upstream API error: the SatNOGS API responded with status %d for the given type", status)
	}
}

// reserializeJSON parses and re-encodes a JSON body. json.Number keeps
// numeric values intact, so the output is the same JSON value modulo
// formatting.
func reserializeJSON(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return json.Marshal(v)
}
