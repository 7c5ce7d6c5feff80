// Package imaging normalizes uploaded photos into bounded JPEGs.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrUnsupported is returned for uploads that are not JPEG, PNG or WebP.
var ErrUnsupported = errors.New("unsupported image format")

// Profile controls how a photo is normalized.
type Profile struct {
	MaxDimension int
	Quality      int
}

var (
	// Listing is used for photos shown in the public feed.
	Listing = Profile{MaxDimension: 1600, Quality: 80}

	// Evidence keeps ownership proof sharp enough for moderators to read
	// serial numbers and names.
	Evidence = Profile{MaxDimension: 2400, Quality: 90}
)

var allowed = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Result is a normalized photo.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Sniff detects the format from the leading bytes, ignoring whatever the
// client claimed.
func Sniff(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if !allowed[mime] {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
	return mime, nil
}

// Normalize decodes data, fits it within p.MaxDimension and re-encodes it
// as JPEG at p.Quality.
func Normalize(data []byte, p Profile) (*Result, error) {
	if _, err := Sniff(data); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = fit(img, p.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Result{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down so its longer side is at most limit. Smaller images
// are returned unchanged.
func fit(img image.Image, limit int) image.Image {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}

	if w >= h {
		w, h = limit, max(1, h*limit/w)
	} else {
		w, h = max(1, w*limit/h), limit
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
