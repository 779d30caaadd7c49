package services

import "errors"

// Dashboard service errors
var (
	// View errors
	ErrUnknownView = errors.New("unknown view")

	// Regression errors
	ErrLiveRegressionDisabled = errors.New("live regression is disabled")

	// Export errors
	ErrExportFailed = errors.New("export failed")

	// General errors
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
