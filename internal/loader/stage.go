package loader

import "fmt"

// Stage is a state of a load attempt.
type Stage uint8

const (
	StageIdle Stage = iota
	StageDetecting
	StageExtractingArchive
	StageLocatingPrimaryAsset
	StageResolvingReferences
	StageRewriting
	StageDecoding
	StageSucceeded
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDetecting:
		return "detecting"
	case StageExtractingArchive:
		return "extracting-archive"
	case StageLocatingPrimaryAsset:
		return "locating-primary-asset"
	case StageResolvingReferences:
		return "resolving-references"
	case StageRewriting:
		return "rewriting"
	case StageDecoding:
		return "decoding"
	case StageSucceeded:
		return "succeeded"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Terminal reports whether s ends an attempt.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}
