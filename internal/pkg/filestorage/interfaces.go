package filestorage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrInvalidObjectName is returned for names that are empty or escape the storage root
var ErrInvalidObjectName = errors.New("invalid object name")

// ImageStorage stores image bytes permanently and returns a URL they can be fetched from
type ImageStorage interface {
	// SaveImage stores data under name (a slash-separated relative path) and returns its URL
	SaveImage(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// CleanObjectName normalizes a slash-separated object name and rejects names
// that are empty, absolute or contain parent references.
func CleanObjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return "", ErrInvalidObjectName
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", ErrInvalidObjectName
		}
	}
	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", ErrInvalidObjectName
	}
	return cleaned, nil
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
