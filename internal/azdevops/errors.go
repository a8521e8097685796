package azdevops

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AuthError is returned when Azure DevOps rejects the credential (HTTP 401).
// Callers should ask for a new PAT rather than retry.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (HTTP %d): your PAT is invalid or expired. "+
		"Run 'azdo-prtree auth' to store a new Personal Access Token", e.StatusCode)
}

// RemoteError is returned for any other non-2xx response or transport failure.
// StatusCode is zero when no response was received.
type RemoteError struct {
	StatusCode int
	Status     string
	Message    string
	// ServerMessage is the "message" field of a JSON error body, when present.
	ServerMessage string
	Err           error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	if e.ServerMessage != "" {
		msg += ": " + e.ServerMessage
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is or wraps an *AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNotFound reports whether err is a RemoteError for HTTP 404.
func IsNotFound(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound
}

// formatHTTPError maps a failed response to an *AuthError or *RemoteError with a
// user-facing message. The raw body is never included; only the server's
// "message" field is kept for conflicts, where it explains what went wrong.
func formatHTTPError(statusCode int, body []byte) error {
	if statusCode == http.StatusUnauthorized {
		return &AuthError{StatusCode: statusCode}
	}

	e := &RemoteError{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
	}

	switch {
	case statusCode == http.StatusForbidden:
		e.Message = "access denied. Your PAT does not have permission for this operation; " +
			"check that it has the Code (Read & Write) scope"
	case statusCode == http.StatusNotFound:
		e.Message = "resource not found. Check that the organization, project and repository names are correct"
	case statusCode == http.StatusConflict:
		e.Message = "conflict"
		e.ServerMessage = serverMessage(body)
	case statusCode == http.StatusTooManyRequests:
		e.Message = "rate limit exceeded. Please wait a moment and retry"
	case statusCode == http.StatusServiceUnavailable:
		e.Message = "Azure DevOps is unavailable. This is usually a temporary issue, please try again later"
	case statusCode >= 500:
		e.Message = "Azure DevOps server error. Please try again later"
	default:
		e.Message = fmt.Sprintf("request failed (%s)", http.StatusText(statusCode))
	}

	return e
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
