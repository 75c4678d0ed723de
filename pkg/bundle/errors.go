package bundle

import "errors"

var (
	ErrCorruptArchive = errors.New("bundle: corrupt archive")
	ErrEntryNotFound  = errors.New("bundle: entry not found")
	ErrEntryTooLarge  = errors.New("bundle: entry exceeds size limit")
)
