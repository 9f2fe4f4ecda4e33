// Package devicetime normalizes the timestamp strings field loggers report.
//
// Neither encoding carries a timezone, so parsed instants are interpreted in
// the local zone of this process. That ambiguity is inherited from the device
// firmware and deliberately not papered over by assuming UTC.
package devicetime

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnrecognizedFormat is returned when a timestamp matches none of the
// accepted encodings. Callers must treat the message as invalid; there is no
// sentinel date.
var ErrUnrecognizedFormat = errors.New("unrecognized timestamp format")

const (
	// compactLayout matches e.g. "20251125T145710".
	compactLayout = "20060102T150405"
	// readableLayout matches e.g. "2025-11-25 14:57:10".
	readableLayout = "2006-01-02 15:04:05"
)

// fallbackLayouts is the bounded set of generic encodings tried when neither
// literal device format matches. Anything outside this list fails loudly
// instead of producing a guessed date.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse converts a device-reported timestamp into an instant.
func Parse(s string) (time.Time, error) {
	if len(s) == 15 {
		if t, err := time.ParseInLocation(compactLayout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(readableLayout, s, time.Local); err == nil {
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedFormat, s)
}
