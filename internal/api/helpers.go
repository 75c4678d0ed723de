package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/assetpipe/internal/loader"
)

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Stage   string `json:"stage,omitempty"`
}

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, b)
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, stage string) error {
	return writeJSON(c, status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Stage:   stage,
		},
	})
}

func writeLoadError(c *echo.Context, err error) error {
	status, errType := loadErrorStatus(err)
	stage := ""
	var le *loader.LoadError
	if errors.As(err, &le) {
		stage = le.Stage.String()
	}
	return writeError(c, status, errType, err.Error(), stage)
}

// readUpload returns the multipart "file" field as a loader.File. The
// optional "name" field overrides the uploaded filename.
func readUpload(c *echo.Context, maxBytes int64) (loader.File, error) {
	req := c.Request()
	if maxBytes > 0 {
		// Leave room for the multipart framing around the file.
		req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes+1<<20)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return loader.File{}, errUploadTooLarge
		}
		return loader.File{}, newInvalidRequest(fmt.Sprintf("file: %v", err))
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return loader.File{}, errUploadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return loader.File{}, newInvalidRequest(fmt.Sprintf("file: %v", err))
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return loader.File{}, newInvalidRequest(fmt.Sprintf("file: %v", err))
	}

	name := fh.Filename
	if override := strings.TrimSpace(c.FormValue("name")); override != "" {
		name = override
	}
	if name == "" {
		return loader.File{}, newInvalidRequest("file: missing filename")
	}
	return loader.File{Name: name, Data: data}, nil
}

var errUploadTooLarge = errors.New("upload too large")

// admit rejects requests with 429 once the limiter is exhausted. A nil
// limiter admits everything.
func admit(l *rate.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if l != nil && !l.Allow() {
				c.Response().Header().Set("Retry-After", "1")
				return writeError(c, http.StatusTooManyRequests, "rate_limit_error", "too many loads, retry later", "")
			}
			return next(c)
		}
	}
}
