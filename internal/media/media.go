// Package media is the boundary to the external image store. Records keep
// only an opaque object id plus a serving URL; everything else is the store's
// business.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Placeholder URLs used when an identity or task has no uploaded image.
const (
	DefaultProfileURL = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_1280.png"
	DefaultTaskURL    = "https://via.placeholder.com/150"
)

// Image references one stored object. A zero ID means the record is still on
// its placeholder and there is nothing to release.
type Image struct {
	ID  string `json:"public_id,omitempty"`
	URL string `json:"url"`
}

// Stored reports whether the image points at a real object in the store.
func (img Image) Stored() bool {
	return img.ID != ""
}

// File is a decoded multipart upload on its way into the store.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store is the upload/destroy surface the lifecycle managers depend on.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (Image, error)
	Destroy(ctx context.Context, id string) error
}

// ObjectKey builds a per-user storage key. The uuid suffix keeps repeated
// uploads of the same filename from overwriting each other.
func ObjectKey(username, kind, filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if base == "" || base == "." {
		base = "image"
	}
	return fmt.Sprintf("users/%s/%s/%s-%s", username, kind, base, uuid.NewString())
}
