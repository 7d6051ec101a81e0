package screen

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
)

// decodeRegion decodes a full-screen capture and crops it to rect.
func decodeRegion(data []byte, rect image.Rectangle) (*image.RGBA, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}
	clip := rect.Intersect(src.Bounds())
	if clip.Empty() {
		return nil, apperrors.Newf(apperrors.CaptureFailed, "region %v is outside the screen %v", rect, src.Bounds())
	}
	dst := image.NewRGBA(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	draw.Draw(dst, dst.Bounds(), src, clip.Min, draw.Src)
	return dst, nil
}

// decodeScaled decodes a region capture and brings it to w x h. HiDPI displays
// return more pixels than requested; nearest-neighbor keeps colors exact.
func decodeScaled(data []byte, w, h int) (*image.RGBA, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst, nil
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.DecodeFailed, "decode screenshot").
			WithMetadata("size", strconv.Itoa(len(data)))
	}
	return img, nil
}
