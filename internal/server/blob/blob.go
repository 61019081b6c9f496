// Package blob turns client-supplied media references (data URLs or
// already-hosted http(s) URLs) into stored, publicly reachable URLs.
package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/google/uuid"
)

// Object is the result of storing a reference.
type Object struct {
	URL       string
	MediaType string
}

// Store persists media. An empty ref yields an empty Object.
type Store interface {
	Put(ctx context.Context, prefix, ref string) (Object, error)
}

var errInvalidFile = common.NewError(common.ErrorValidation, "Invalid file data")

// ParseDataURL decodes "data:<type>[;base64],<payload>".
func ParseDataURL(ref string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, errInvalidFile
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errInvalidFile
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	contentType = meta
	if contentType == "" {
		contentType = "text/plain"
	}
	if _, _, err := mime.ParseMediaType(contentType); err != nil {
		return "", nil, errInvalidFile
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, errInvalidFile
		}
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, errInvalidFile
		}
		data = []byte(s)
	}
	if len(data) == 0 {
		return "", nil, errInvalidFile
	}
	return contentType, data, nil
}

// MediaTypeOf maps a MIME type to the stored attachment kind.
func MediaTypeOf(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.FileTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return models.FileTypeVideo
	default:
		return models.FileTypeRaw
	}
}

// mediaTypeOfURL guesses the kind of an already hosted file from its extension.
func mediaTypeOfURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return models.FileTypeRaw
	}
	i := strings.LastIndex(u.Path, ".")
	if i < 0 {
		return models.FileTypeRaw
	}
	return MediaTypeOf(mime.TypeByExtension(u.Path[i:]))
}

func isHostedURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// newObjectKey builds "<prefix>/<yyyy>/<mm>/<uuid><ext>".
func newObjectKey(prefix, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	d := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%s%s", prefix, d.Year(), d.Month(), uuid.NewString(), ext)
}

// Passthrough keeps references as given. Used when no object storage is
// configured; data URLs are stored inline.
type Passthrough struct{}

func (Passthrough) Put(_ context.Context, _ string, ref string) (Object, error) {
	switch {
	case ref == "":
		return Object{}, nil
	case isHostedURL(ref):
		return Object{URL: ref, MediaType: mediaTypeOfURL(ref)}, nil
	}
	contentType, _, err := ParseDataURL(ref)
	if err != nil {
		return Object{}, err
	}
	return Object{URL: ref, MediaType: MediaTypeOf(contentType)}, nil
}
