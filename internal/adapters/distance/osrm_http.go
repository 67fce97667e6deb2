package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"route-optimizer-service/internal/platform/obs"
)

// StatusError is returned when OSRM answers with a non-success HTTP status.
type StatusError struct {
	Code int
	Body string
	// OSRMCode is the "code" field of the error payload, when present.
	OSRMCode string
}

func (e *StatusError) Error() string {
	if e.OSRMCode != "" {
		return fmt.Sprintf("osrm: HTTP %d (%s): %s", e.Code, e.OSRMCode, e.Body)
	}
	return fmt.Sprintf("osrm: HTTP %d: %s", e.Code, e.Body)
}

// CodeError is returned when the payload carries a code other than "Ok".
type CodeError struct {
	Code    string
	Message string
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("osrm: response code %s: %s", e.Code, e.Message)
}

func (o *OSRMProvider) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (o *OSRMProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		se := &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
		var payload struct {
			Code string `json:"code"`
		}
		if json.Unmarshal(b, &payload) == nil {
			se.OSRMCode = payload.Code
		}
		return nil, se
	}
	return resp, nil
}

// getJSON issues a GET and decodes the body into out. Failures that indicate
// an overloaded or unreachable service start the cool-down window.
// No retries are performed.
func (o *OSRMProvider) getJSON(ctx context.Context, endpoint string, url string, out any) error {
	req, err := o.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		obs.RoutingRequests.WithLabelValues(endpoint, "request_error").Inc()
		return err
	}

	resp, err := o.do(req)
	if err != nil {
		var se *StatusError
		switch {
		case errors.As(err, &se):
			obs.RoutingRequests.WithLabelValues(endpoint, "http_error").Inc()
			if isRetryableStatus(se.Code) {
				o.markUnavailable(err)
			}
		case ctx.Err() != nil:
			// Cancelled by the caller; not the service's fault.
			obs.RoutingRequests.WithLabelValues(endpoint, "cancelled").Inc()
		default:
			obs.RoutingRequests.WithLabelValues(endpoint, "transport_error").Inc()
			o.markUnavailable(err)
		}
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		obs.RoutingRequests.WithLabelValues(endpoint, "bad_payload").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	obs.RoutingRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}
