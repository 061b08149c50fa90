package content

import (
	"errors"
	"fmt"
)

// ErrNotFound: no poem with that id.
var ErrNotFound = errors.New("poem not found")

// ErrNotImage: uploaded bytes are not a supported image.
var ErrNotImage = errors.New("not a supported image")

// StorageError names the content-store call that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("content store: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// UploadError wraps an image upload failure.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "image upload: " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
