package classify

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
)

// DecodeImage decodes a base64 encoded bitmap. Both bare base64 and data
// URLs ("data:image/png;base64,...") are accepted. PNG, JPEG, BMP and WebP
// payloads are supported.
func DecodeImage(encoded string) (image.Image, error) {
	payload := encoded
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ",")
		if i < 0 {
			return nil, zerrors.New(zerrors.ErrCodeInvalidInput, "data URL without payload")
		}
		if !strings.HasSuffix(payload[:i], ";base64") {
			return nil, zerrors.New(zerrors.ErrCodeUnsupported, "data URL is not base64 encoded")
		}
		payload = payload[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeInvalidInput, err, "decode base64 bitmap")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeInvalidInput, err, "decode bitmap")
	}
	return img, nil
}
