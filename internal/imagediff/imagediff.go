// Package imagediff scores visual similarity between two frames.
//
// The score is 1 minus the mean squared error over every pixel's red,
// green and blue channels, normalized so 0 means maximally different and
// 1 means identical. Alpha is ignored; captures arrive fully opaque.
package imagediff

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrDimensionMismatch is returned when the two images do not share the
// same width and height. Similarity across different geometries is not
// defined; callers that want it must crop or scale first.
var ErrDimensionMismatch = errors.New("imagediff: image dimensions differ")

// Score returns the similarity of a and b in [0, 1]. Comparing an image
// against itself returns exactly 1.0, and the score is symmetric.
func Score(a, b image.Image) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrDimensionMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	w, h := ab.Dx(), ab.Dy()
	if w == 0 || h == 0 {
		return 1, nil
	}

	var sum uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ar, ag, abl, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			br, bg, bbl, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			sum += sqDiff(ar, br) + sqDiff(ag, bg) + sqDiff(abl, bbl)
		}
	}

	// RGBA() returns 16-bit channels, so the per-channel error ceiling
	// is 0xFFFF squared.
	const maxSq = float64(0xFFFF) * float64(0xFFFF)
	mse := float64(sum) / (float64(w*h) * 3 * maxSq)
	return 1 - mse, nil
}

// Diff renders the absolute per-channel difference of a and b as a new
// image. Identical regions come out black; alpha is forced opaque so the
// result stays visible when written to disk.
func Diff(a, b image.Image) (*image.RGBA, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrDimensionMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	out := image.NewRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ar, ag, abl, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			br, bg, bbl, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(absDiff(ar, br) >> 8),
				G: uint8(absDiff(ag, bg) >> 8),
				B: uint8(absDiff(abl, bbl) >> 8),
				A: 0xFF,
			})
		}
	}
	return out, nil
}

func sqDiff(a, b uint32) uint64 {
	d := absDiff(a, b)
	return uint64(d) * uint64(d)
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
