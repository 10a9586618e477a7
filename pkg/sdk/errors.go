package ragfleet

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matching server error codes. Use errors.Is() to check.
var (
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrTenantExists      = errors.New("tenant already exists")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidArchive    = errors.New("invalid archive")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrNoDocuments       = errors.New("no supported documents in archive")
	ErrWorkerUnavailable = errors.New("worker unavailable")
	ErrQueryFailed       = errors.New("query failed")
	ErrUnauthorized      = errors.New("unauthorized")
)

var codeSentinels = map[string]error{
	"tenant_not_found":     ErrTenantNotFound,
	"tenant_already_exists": ErrTenantExists,
	"invalid_credential":   ErrInvalidCredential,
	"invalid_archive":      ErrInvalidArchive,
	"payload_too_large":    ErrPayloadTooLarge,
	"no_documents":         ErrNoDocuments,
	"worker_unavailable":   ErrWorkerUnavailable,
	"spawn_failed":         ErrWorkerUnavailable,
	"query_failed":         ErrQueryFailed,
	"model_provider_error": ErrQueryFailed,
	"unauthorized":         ErrUnauthorized,
}

// APIError carries the server's structured error response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ragfleet: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if sentinel, ok := codeSentinels[e.Code]; ok {
		return sentinel
	}
	return nil
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return apiErr
}
