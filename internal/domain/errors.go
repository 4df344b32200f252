package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidMode     = errors.New("invalid mode")
	ErrJobNotRunnable  = errors.New("job not runnable")
	ErrMissingUpstream = errors.New("missing required upstream data")
	ErrProviderFailure = errors.New("provider failure")
)

// GenerationParseError reports a structured-generation response that violated
// the expected schema. It retains the raw model output so callers can log or
// surface it verbatim.
type GenerationParseError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("stage %s: unparseable generation response: %v", e.Stage, e.Err)
}

func (e *GenerationParseError) Unwrap() error { return e.Err }
