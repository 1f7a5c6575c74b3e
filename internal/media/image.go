// Package media inspects uploaded images and recorded voice clips
// before they are forwarded to the platform.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxImageSize is the upload limit for images.
const MaxImageSize = 5 << 20

// ThumbnailDim is the maximum edge of form preview thumbnails.
const ThumbnailDim = 320

// JPEGQuality is the compression quality for thumbnail output.
const JPEGQuality = 80

// AllowedImageMIME lists the accepted image input types.
var AllowedImageMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ImageInfo describes a validated image upload.
type ImageInfo struct {
	MIME   string
	Width  int
	Height int
}

// InspectImage validates an uploaded image: size cap, byte-sniffed
// format, and a full decode to reject corrupt files.
func InspectImage(data []byte) (*ImageInfo, error) {
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image size should be less than 5MB")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image upload")
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedImageMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	return &ImageInfo{MIME: detected, Width: cfg.Width, Height: cfg.Height}, nil
}

// ThumbnailDataURI produces a small inline preview of a validated image
// for re-rendered forms. Returns "" when the image cannot be decoded.
func ThumbnailDataURI(data []byte) string {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	img = downscale(img, ThumbnailDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// downscale resizes the image so neither dimension exceeds maxDim,
// preserving aspect ratio. Returns the original image if already within
// bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
