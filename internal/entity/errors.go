package entity

import "errors"

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrFlagNotFound     = errors.New("flag not found")
	ErrJobTransition    = errors.New("illegal job status transition")
	ErrInvalidThreshold = errors.New("similarity_threshold must be in (0, 1]")
	ErrNoURLs           = errors.New("at least one url is required")
	ErrInvalidURL       = errors.New("url must be an absolute http(s) url")
	ErrEmptyLaw         = errors.New("changed_law is required")
	ErrInvalidStatus    = errors.New("status must be one of flagged, reviewed, updated")
	ErrUnknownJobType   = errors.New("unknown job type")
)
