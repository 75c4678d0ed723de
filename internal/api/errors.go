package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/assetpipe/internal/loader"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// loadErrorStatus maps a load failure to an HTTP status and error type.
func loadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported_format"
	case errors.Is(err, loader.ErrArchiveCorrupt):
		return http.StatusUnprocessableEntity, "archive_corrupt"
	case errors.Is(err, loader.ErrMissingPrimaryAsset):
		return http.StatusUnprocessableEntity, "missing_primary_asset"
	case errors.Is(err, loader.ErrDecodeFailure):
		return http.StatusUnprocessableEntity, "decode_failure"
	case errors.Is(err, loader.ErrCanceled):
		return http.StatusRequestTimeout, "canceled"
	case errors.Is(err, loader.ErrClosed):
		return http.StatusServiceUnavailable, "server_closing"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
