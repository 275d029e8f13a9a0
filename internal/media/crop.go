package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// TargetAspect is the fixed width/height ratio of every post image.
const TargetAspect = 4.0 / 5.0

// Viewport is the user's pan/zoom selection over the captured still. Center
// coordinates are fractions of the source dimensions in [0,1]; Zoom >= 1
// shrinks the visible rectangle.
type Viewport struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Zoom    float64 `json:"zoom"`
}

// RectForViewport maps a viewport onto a pixel rectangle at the fixed target
// aspect, clamped inside the source bounds.
func RectForViewport(bounds image.Rectangle, vp Viewport) image.Rectangle {
	if vp.Zoom < 1 {
		vp.Zoom = 1
	}

	srcW := float64(bounds.Dx())
	srcH := float64(bounds.Dy())

	// Largest target-aspect rectangle that fits the source, then zoom.
	w := srcW
	h := w / TargetAspect
	if h > srcH {
		h = srcH
		w = h * TargetAspect
	}
	w /= vp.Zoom
	h /= vp.Zoom

	cx := vp.CenterX * srcW
	cy := vp.CenterY * srcH

	x0 := clamp(cx-w/2, 0, srcW-w)
	y0 := clamp(cy-h/2, 0, srcH-h)

	return image.Rect(
		bounds.Min.X+int(x0),
		bounds.Min.Y+int(y0),
		bounds.Min.X+int(x0+w),
		bounds.Min.Y+int(y0+h),
	)
}

// Crop extracts the pixel rectangle from an encoded still and re-encodes it
// as a standalone JPEG at the rectangle's native dimensions. The output is
// bitwise deterministic for a given source and rectangle. A zero-area or
// out-of-bounds rectangle is an error; callers stay on the crop step.
func Crop(encoded []byte, rect image.Rectangle) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("crop rectangle has zero area")
	}
	if !rect.In(img.Bounds()) {
		return nil, fmt.Errorf("crop rectangle outside image bounds")
	}

	cropped := imaging.Crop(img, rect)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBounds returns the pixel bounds of an encoded image.
func DecodeBounds(encoded []byte) (image.Rectangle, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(encoded))
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("decode image bounds: %w", err)
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height), nil
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
