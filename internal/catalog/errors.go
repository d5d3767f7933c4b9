package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	defaultErrorMessage = "API Error"
	adminErrorMessage   = "Admin API Error"
)

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	Status  int
	Message string
	Body    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api %d: %s", e.Status, e.Message)
}

func newAPIError(status int, raw []byte, fallback string) *APIError {
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		body = map[string]any{}
	}
	message := messageFrom(body["message"])
	if message == "" {
		message = fallback
	}
	return &APIError{Status: status, Message: message, Body: body}
}

// messageFrom accepts the string or string-array forms the API uses.
func messageFrom(v any) string {
	switch m := v.(type) {
	case string:
		return strings.TrimSpace(m)
	case []any:
		parts := make([]string, 0, len(m))
		for _, item := range m {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// AsAPIError unwraps a remote API error from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Translate maps catalog failures onto typed errors for the HTTP layer.
// Remote 4xx answers keep their meaning; everything else is an upstream or
// dependency failure.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unavailable")
	}

	code := pkgerrors.CodeUpstream
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		code = pkgerrors.CodeForbidden
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	}
	return pkgerrors.Wrap(code, apiErr, apiErr.Message).WithDetails(map[string]any{
		"upstream_status": apiErr.Status,
		"upstream_body":   apiErr.Body,
	})
}
