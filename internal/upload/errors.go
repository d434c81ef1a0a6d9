package upload

import "errors"

var (
	// ErrNotInitialized is returned when an operation that needs an open
	// stream runs before Begin.
	ErrNotInitialized = errors.New("upload stream not initialized")
	// ErrCancelled is the distinguished abort raised when UploadFile
	// observes a pending cancellation request.
	ErrCancelled = errors.New("transfer cancelled")
	// ErrNotUploading is returned by Cancel when no transfer is running.
	ErrNotUploading = errors.New("no transfer in progress")
)
