// Package encode converts user-supplied sample data into wire-ready request
// bodies. The image pipeline decodes from a URL, local path, or data URI,
// bounds the pixel dimensions, flattens transparency, and re-encodes as a
// JPEG data URI.
package encode

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/nyckel/nyckel-go/internal/constants"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

const dataURIPrefix = "data:image/jpg;base64,"

// inputKind classifies an image input string.
type inputKind int

const (
	inputNyckelOwnedURL inputKind = iota
	inputURL
	inputLocalPath
	inputDataURI
	inputUnknown
)

func classifyInput(input string) inputKind {
	switch {
	case strings.HasPrefix(input, constants.NyckelOwnedURLPrefix):
		return inputNyckelOwnedURL
	case strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"):
		return inputURL
	case strings.HasPrefix(input, "data:"):
		return inputDataURI
	default:
		if _, err := os.Stat(input); err == nil {
			return inputLocalPath
		}

		return inputUnknown
	}
}

// ImageEncoder turns image inputs into bounded JPEG data URIs.
type ImageEncoder struct {
	// MaxSize bounds the longer image side in pixels.
	MaxSize int
	// HTTPClient downloads URL inputs.
	HTTPClient *http.Client
}

// NewImageEncoder creates an encoder with the given pixel bound.
func NewImageEncoder(maxSize int) *ImageEncoder {
	return &ImageEncoder{
		MaxSize:    maxSize,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// EncodeInline converts an image input to a data URI. Inputs already hosted
// on Nyckel-owned storage have been through this pipeline server-side and
// pass through unchanged.
func (e *ImageEncoder) EncodeInline(ctx context.Context, input string) (string, error) {
	kind := classifyInput(input)
	if kind == inputNyckelOwnedURL {
		return input, nil
	}

	if kind == inputUnknown {
		return "", fmt.Errorf("%w: %q is not a URL, a readable file path, or a data URI", nyckel.ErrUnknownImageInput, truncateForError(input))
	}

	img, err := e.decode(ctx, input, kind)
	if err != nil {
		return "", err
	}

	img = boundSize(img, e.MaxSize)
	img = flattenOnWhite(img)

	var buf bytes.Buffer

	err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality})
	if err != nil {
		return "", fmt.Errorf("encoding JPEG: %w", err)
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (e *ImageEncoder) decode(ctx context.Context, input string, kind inputKind) (image.Image, error) {
	var (
		raw []byte
		err error
	)

	switch kind {
	case inputURL:
		raw, err = e.download(ctx, input)
	case inputLocalPath:
		raw, err = os.ReadFile(input)
		if err != nil {
			err = fmt.Errorf("reading image file: %w", err)
		}
	case inputDataURI:
		raw, err = DecodeDataURI(input)
	default:
		return nil, fmt.Errorf("%w: %q", nyckel.ErrUnknownImageInput, truncateForError(input))
	}

	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image from %s: %w", truncateForError(input), err)
	}

	return img, nil
}

func (e *ImageEncoder) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building image download request: %w", err)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image %s: %w", rawURL, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading image %s: status %d", rawURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading image download %s: %w", rawURL, err)
	}

	return raw, nil
}

// DecodeDataURI extracts the raw bytes from a base64 data URI. The URI must
// carry a ";base64," marker and a non-empty payload.
func DecodeDataURI(uri string) ([]byte, error) {
	_, payload, found := strings.Cut(uri, ";base64,")
	if !found {
		return nil, fmt.Errorf("%w: missing \";base64,\" marker", nyckel.ErrMalformedDataURI)
	}

	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", nyckel.ErrMalformedDataURI)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nyckel.ErrMalformedDataURI, err)
	}

	return raw, nil
}

// boundSize scales the image down so its longer side is at most maxSize
// pixels, preserving aspect ratio. Images already within bounds pass through.
func boundSize(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int

	if width >= height {
		newWidth = maxSize
		newHeight = height * maxSize / width
	} else {
		newHeight = maxSize
		newWidth = width * maxSize / height
	}

	if newWidth < 1 {
		newWidth = 1
	}

	if newHeight < 1 {
		newHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)

	return scaled
}

// flattenOnWhite composites the image onto an opaque white background, so no
// transparent pixels survive into the JPEG.
func flattenOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()

	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)

	return flat
}

func truncateForError(input string) string {
	const max = 80

	if len(input) > max {
		return input[:max] + "..."
	}

	return input
}
