// Package media describes the image storage consumed by user and tour uploads.
package media

import (
	"context"
	"errors"
)

// ErrStorageDisabled is returned when no image storage is configured
var ErrStorageDisabled = errors.New("image uploads are not configured")

// ErrUnsupportedImage is returned for payloads that are not a supported image type
var ErrUnsupportedImage = errors.New("only jpeg, png and webp images are accepted")

// Folders
const (
	FolderUsers = "users"
	FolderTours = "tours"
)

// ImageStore uploads an image and returns its public URL
type ImageStore interface {
	Upload(ctx context.Context, data []byte, folder, id string) (string, error)
}

// Disabled is an ImageStore that rejects every upload
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, data []byte, folder, id string) (string, error) {
	return "", ErrStorageDisabled
}
