package download

import "errors"

// ErrNotInitialized is returned when Pull runs before Begin.
var ErrNotInitialized = errors.New("download handle not initialized")
