package kintone

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// UpstreamError is returned when kintone answers with a non-2xx status.
type UpstreamError struct {
	// StatusCode is the HTTP status code returned by kintone.
	StatusCode int

	// Status is the HTTP status text, e.g. "Not Found".
	Status string

	// Code, ID and Message come from the kintone error body when present.
	// They are kept for server-side logging only.
	Code    string
	ID      string
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("kintone API error: %d %s", e.StatusCode, e.Status)
}

// newUpstreamError builds an UpstreamError from a response and its body.
func newUpstreamError(resp *http.Response, body []byte) *UpstreamError {
	status := strings.TrimSpace(
		strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}

	upErr := &UpstreamError{
		StatusCode: resp.StatusCode,
		Status:     status,
	}

	var apiErr struct {
		Code    string `json:"code"`
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		upErr.Code = apiErr.Code
		upErr.ID = apiErr.ID
		upErr.Message = apiErr.Message
	}

	return upErr
}
