package gateway

import (
	"context"
	"fmt"
	"io"
)

// UploadImage stores an image in the profiles bucket under a fresh key and
// returns the key.
func (g *Local) UploadImage(ctx context.Context, filename string, body io.Reader) (key string, err error) {
	defer g.observe("upload_image", &err)

	if _, err := g.adminID(ctx); err != nil {
		return "", err
	}
	if g.bucket == nil {
		return "", ErrStorageUnavailable
	}
	key, contentType, err := g.bucket.ImageKey(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := g.bucket.Upload(ctx, key, contentType, body); err != nil {
		return "", err
	}
	return key, nil
}

// PublicURL resolves where an uploaded object is served from.
func (g *Local) PublicURL(key string) string {
	if g.bucket == nil {
		return ""
	}
	return g.bucket.PublicURL(key)
}
