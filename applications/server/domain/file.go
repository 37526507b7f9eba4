package domain

import "errors"

// Upload is a single file extracted from a multipart request body.
// Content is a view into the request buffer until it is stored.
type Upload struct {
	Name    string
	Content []byte
}

var (
	ErrMissingBoundary      = errors.New("missing boundary")
	ErrMalformedBody        = errors.New("malformed body")
	ErrMissingFilename      = errors.New("missing filename")
	ErrDirectoryUnavailable = errors.New("directory unavailable")
	ErrWriteFailure         = errors.New("write failure")
	ErrNotFound             = errors.New("file not found")
	ErrDeleteFailure        = errors.New("delete failure")
)
