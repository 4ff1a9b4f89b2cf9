package client

import (
	"errors"
	"net/http"
)

var (
	// ErrNotAuthenticated is returned before any network call when a
	// mutation needs a signed-in user and there is none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrQueryDisabled is returned by reads whose required parameters are
	// missing, e.g. a like status without a post ID or a viewer.
	ErrQueryDisabled = errors.New("query disabled: required parameters missing")
	// ErrNotConfirmed is returned by DeletePost when the caller did not
	// confirm the deletion.
	ErrNotConfirmed = errors.New("deletion not confirmed")
	// ErrEmptyComment is returned when a blank comment draft is submitted.
	ErrEmptyComment = errors.New("comment is empty")
	// ErrSubmitInFlight is returned when a draft is submitted twice at once.
	ErrSubmitInFlight = errors.New("submit already in progress")
)

// APIError is a non-2xx answer from the API, decoded from its error body.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// HasCode reports whether err is an APIError carrying code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
