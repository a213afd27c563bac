package service

import (
	"fmt"
	"strings"

	"satnogs-proxy-go/internal/model"
)

// RouteError is a client protocol error produced while parsing an inbound
// path. Message is safe to return to the caller verbatim.
type RouteError struct {
	Message string
}

func (e *RouteError) Error() string {
	return e.Message
}

// ParseRoute maps an inbound request path to a Route. It splits on "/" and
// drops empty segments, so repeated, leading, and trailing slashes are all
// tolerated uniformly. A valid path has at least three non-empty segments,
// starts with the literal "api", and names a supported API type second;
// everything from the third segment on becomes the residual path, re-joined
// with a single leading "/". Parsing depends on nothing but the path itself.
func ParseRoute(path string) (model.Route, error) {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) < 3 || segments[0] != "api" {
		return model.Route{}, &RouteError{
			Message: "Not Found: Invalid API path structure. Expected /api/network/... or /api/db/...",
		}
	}

	apiType := model.APIType(segments[1])
	switch apiType {
	case model.APINetwork, model.APIDB:
	default:
		return model.Route{}, &RouteError{
			Message: fmt.Sprintf("Not Found: API type '%s' is not supported. Use 'network' or 'db'.", segments[1]),
		}
	}

	return model.Route{
		Type:     apiType,
		Residual: "/" + strings.Join(segments[2:], "/"),
	}, nil
}
