package loader

import (
	"errors"
	"fmt"

	"github.com/samcharles93/assetpipe/internal/format"
)

var (
	ErrUnsupportedFormat   = format.ErrUnsupportedFormat
	ErrArchiveCorrupt      = errors.New("archive corrupt")
	ErrMissingPrimaryAsset = errors.New("missing primary asset")
	ErrDecodeFailure       = errors.New("decode failure")
	ErrCanceled            = errors.New("load canceled")
	ErrHandleCreate        = errors.New("handle create failed")
	ErrClosed              = errors.New("loader closed")
)

// LoadError is returned by every failed load. Stage is where the attempt
// was when it failed; Err wraps one of the sentinel errors above and the
// underlying cause.
type LoadError struct {
	Stage Stage
	File  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.File, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage at which err originated, or StageIdle when err
// is not a load error.
func StageOf(err error) Stage {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Stage
	}
	return StageIdle
}
