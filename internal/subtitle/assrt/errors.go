package assrt

import (
	"fmt"
	"net/http"

	"subplay/internal/services"
)

// API status codes.
const (
	StatusOK                = 0
	StatusInvalidCredential = 20001
	StatusNotFound          = 20900
	StatusRateLimited       = 30900
)

func statusError(operation string, status int, message string) error {
	switch status {
	case StatusOK:
		return nil
	case StatusInvalidCredential:
		return services.Wrap(services.ErrInvalidCredential, "assrt", operation, fmt.Sprintf("status %d %s", status, message), nil)
	case StatusNotFound:
		return services.Wrap(services.ErrNotFound, "assrt", operation, fmt.Sprintf("status %d %s", status, message), nil)
	case StatusRateLimited:
		return services.Wrap(services.ErrRateLimited, "assrt", operation, fmt.Sprintf("status %d %s", status, message), nil)
	default:
		return services.Wrap(services.ErrNetwork, "assrt", operation, fmt.Sprintf("status %d %s", status, message), nil)
	}
}

func httpError(operation string, resp *http.Response, body string) error {
	marker := services.ErrNetwork
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		marker = services.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		marker = services.ErrInvalidCredential
	case http.StatusNotFound:
		marker = services.ErrNotFound
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, "assrt", operation, fmt.Sprintf("%s: %s", resp.Status, body), nil)
}

func transportError(operation string, err error) error {
	marker := services.ErrNetwork
	if services.IsTimeout(err) {
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, "assrt", operation, "request failed", err)
}
