package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Image size limits, in pixels along the long edge
const (
	MaxOCREdge       = 1600
	ThumbnailEdge    = 320
	hashJPEGQuality  = 80
	thumbJPEGQuality = 65
	rawJPEGQuality   = 90
	prepJPEGQuality  = 92
	blankStdDevLimit = 4.0
)

// ErrImageDecode is returned when an upload is not a readable image
var ErrImageDecode = errors.New("could not decode image")

// Variant names an image preprocessing variant
type Variant string

const (
	VariantPreprocessed Variant = "preprocessed"
	VariantRaw          Variant = "raw"
)

// Attempt is one (rotation, variant) OCR pass
type Attempt struct {
	Rotation int
	Variant  Variant
}

// DefaultAttemptPlan is every rotation tried with each variant, in order
var DefaultAttemptPlan = buildAttemptPlan([]int{0, 90, 270, 180}, []Variant{VariantPreprocessed, VariantRaw})

func buildAttemptPlan(rotations []int, variants []Variant) []Attempt {
	plan := make([]Attempt, 0, len(rotations)*len(variants))
	for _, r := range rotations {
		for _, v := range variants {
			plan = append(plan, Attempt{Rotation: r, Variant: v})
		}
	}
	return plan
}

// AttemptSource produces the image bytes for one OCR attempt
type AttemptSource interface {
	AttemptImage(ctx context.Context, attempt Attempt) ([]byte, error)
}

// PreparedImage is an upload decoded, oriented and downscaled for OCR
type PreparedImage struct {
	img              *image.NRGBA
	Hash             string
	ThumbnailDataURL string
	Thumbnail        []byte
	Normalized       []byte
	Width            int
	Height           int
	LikelyNonBlank   bool
}

// PrepareImage decodes data honoring EXIF orientation and builds the
// normalized copy, its hash and a thumbnail.
func PrepareImage(data []byte) (*PreparedImage, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	img := imaging.Fit(src, MaxOCREdge, MaxOCREdge, imaging.Lanczos)
	thumb := imaging.Fit(src, ThumbnailEdge, ThumbnailEdge, imaging.Lanczos)

	normalized, err := encodeJPEG(img, hashJPEGQuality)
	if err != nil {
		return nil, err
	}
	thumbBytes, err := encodeJPEG(thumb, thumbJPEGQuality)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(normalized)
	bounds := img.Bounds()

	return &PreparedImage{
		img:              img,
		Hash:             hex.EncodeToString(sum[:]),
		ThumbnailDataURL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(thumbBytes),
		Thumbnail:        thumbBytes,
		Normalized:       normalized,
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
		LikelyNonBlank:   luminanceStdDev(imaging.Grayscale(thumb)) > blankStdDevLimit,
	}, nil
}

// AttemptImage rotates the image clockwise by the attempt's degrees and
// encodes the requested variant as JPEG.
func (p *PreparedImage) AttemptImage(ctx context.Context, attempt Attempt) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rotated, err := rotateClockwise(p.img, attempt.Rotation)
	if err != nil {
		return nil, err
	}

	switch attempt.Variant {
	case VariantPreprocessed:
		return encodeJPEG(thresholdAtMean(rotated), prepJPEGQuality)
	case VariantRaw:
		return encodeJPEG(rotated, rawJPEGQuality)
	default:
		return nil, fmt.Errorf("unknown image variant %q", attempt.Variant)
	}
}

func rotateClockwise(img *image.NRGBA, degrees int) (*image.NRGBA, error) {
	// imaging rotates counter-clockwise
	switch ((degrees % 360) + 360) % 360 {
	case 0:
		return img, nil
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	default:
		return nil, fmt.Errorf("unsupported rotation %d", degrees)
	}
}

// thresholdAtMean maps each pixel to black or white around the mean luminance
func thresholdAtMean(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	mean := meanLuminance(gray)
	return imaging.AdjustFunc(gray, func(c color.NRGBA) color.NRGBA {
		v := uint8(0)
		if float64(c.R) > mean {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func meanLuminance(gray *image.NRGBA) float64 {
	n := len(gray.Pix) / 4
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < len(gray.Pix); i += 4 {
		sum += float64(gray.Pix[i])
	}
	return sum / float64(n)
}

func luminanceStdDev(gray *image.NRGBA) float64 {
	n := len(gray.Pix) / 4
	if n == 0 {
		return 0
	}
	mean := meanLuminance(gray)
	var sq float64
	for i := 0; i < len(gray.Pix); i += 4 {
		d := float64(gray.Pix[i]) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n))
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
