package rules

import "errors"

var (
	// ErrUnknownKind is returned when a signal group names a kind outside the taxonomy
	ErrUnknownKind = errors.New("unknown signal kind")

	// ErrDuplicateKind is returned when two signal groups share a kind
	ErrDuplicateKind = errors.New("duplicate signal kind")

	// ErrUnknownSource is returned for a source other than response, user or both
	ErrUnknownSource = errors.New("unknown rule source")

	// ErrUnknownMode is returned for an attribute mode the extractor cannot interpret
	ErrUnknownMode = errors.New("unknown attribute mode")

	// ErrEmptyPatterns is returned when a rule has nothing to match
	ErrEmptyPatterns = errors.New("rule has no patterns")

	// ErrBadPattern wraps regular expression compile failures
	ErrBadPattern = errors.New("invalid pattern")

	// ErrBadWeight is returned for indicators with a non-positive weight
	ErrBadWeight = errors.New("indicator weight must be positive")
)
