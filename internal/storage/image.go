package storage

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize caps decoded image payloads.
const MaxImageSize = 10 << 20

// ErrInvalidImage is returned when a payload is not a supported base64 image.
var ErrInvalidImage = stderrors.New("upload a valid image")

// AllowImage lists accepted image content types.
var AllowImage = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is a decoded upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ImageStore persists images and turns object keys into retrievable URLs.
type ImageStore interface {
	Save(ctx context.Context, folder string, img *Image) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// DecodeImage parses a "data:image/png;base64,..." payload. A bare base64
// string is accepted too; the content type is sniffed from the bytes either way.
func DecodeImage(payload string) (*Image, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrInvalidImage
	}
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ";base64,")
		if idx < 0 {
			return nil, ErrInvalidImage
		}
		payload = payload[idx+len(";base64,"):]
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), AllowImage...) {
		return nil, ErrInvalidImage
	}
	return &Image{Data: data, ContentType: mt.String(), Extension: mt.Extension()}, nil
}
