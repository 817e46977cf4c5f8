package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrJobInProgress       = errors.New("job in progress")
	ErrJobAbandoned        = errors.New("job abandoned")
	ErrNoSourceImage       = errors.New("no source image")
	ErrNoVideo             = errors.New("no video available")
	ErrInvalidImage        = errors.New("invalid image")
	ErrInvalidAspectRatio  = errors.New("invalid aspect ratio")
	ErrInvalidTab          = errors.New("invalid tab")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrProviderFailure     = errors.New("provider failure")
	ErrTimedOut            = errors.New("timed out")
	ErrHistoryUnavailable  = errors.New("job history unavailable")
)
