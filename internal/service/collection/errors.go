package collection

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownPlace = errors.New("place referenced by acquisition does not exist")
	ErrRateLimited  = errors.New("too many acquisitions")
)

// ValidationError lists the required acquire fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// RateLimitError reports how long the caller should wait. It matches
// ErrRateLimited under errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("too many acquisitions, retry in %s", e.RetryAfter)
}

func (e RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
