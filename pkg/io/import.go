package io

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/coloriage/pkg/errors"
)

// DefaultMaxBytes bounds the encoded size accepted by DecodeImage.
const DefaultMaxBytes = 32 << 20

// DecodeImage reads an encoded image from r. At most maxBytes are read; a
// non-positive limit selects DefaultMaxBytes. The returned string names the
// detected format ("png", "jpeg", "gif", "webp" or "bmp").
//
// Unknown formats fail with UNSUPPORTED_FORMAT; oversized, truncated or
// corrupt data fails with INVALID_IMAGE. DecodeImage does not close r.
func DecodeImage(r io.Reader, maxBytes int64) (image.Image, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidImage, err, "read image")
	}
	if int64(len(data)) > maxBytes {
		return nil, "", errors.New(errors.ErrCodeInvalidImage, "image larger than %d bytes", maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if err == image.ErrFormat {
			return nil, "", errors.Wrap(errors.ErrCodeUnsupportedFormat, err, "unsupported image format")
		}
		return nil, "", errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s header", format)
	}
	if err := errors.ValidateDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", format)
	}
	return img, format, nil
}

// ImportImage decodes the image file at path.
func ImportImage(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeImage(f, DefaultMaxBytes)
}
