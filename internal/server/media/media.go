// Package media stores profile images in S3-compatible object storage.
package media

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// Image is an uploaded file as received by the transport.
type Image struct {
	Filename string
	Data     []byte
}

// Object identifies a stored image. ID is the object key used for deletion.
type Object struct {
	ID  string
	URL string
}

type Store interface {
	Upload(ctx context.Context, img *Image) (*Object, error)
	Delete(ctx context.Context, id string) error
}

// Detect checks that img is a non-empty image no larger than maxBytes and
// returns its sniffed MIME type and extension. Failures are validation
// errors.
func Detect(img *Image, maxBytes int64) (contentType, ext string, err error) {
	if img == nil || len(img.Data) == 0 {
		return "", "", common.Validation("profile image is required", "profile")
	}
	if maxBytes > 0 && int64(len(img.Data)) > maxBytes {
		return "", "", common.Validation("profile image is too large", "profile")
	}

	mt := mimetype.Detect(img.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", "", common.Validation("profile must be an image", "profile")
	}

	return mt.String(), mt.Extension(), nil
}
