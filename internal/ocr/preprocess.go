package ocr

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/fcolor"
	"github.com/disintegration/imaging"
)

// Enhancement parameters for the second OCR pass.
const (
	ContrastFactor   = 2.0
	SharpnessFactor  = 2.0
	UnsharpRadius    = 2.0
	UnsharpPercent   = 150
	UnsharpThreshold = 3
)

// smoothKernel is the 3x3 smoothing filter used as the "blurred" reference
// when boosting sharpness.
var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// Preprocess converts img to single-channel grayscale. With enhance set it
// also doubles contrast around the mean luminance, doubles sharpness and
// applies an unsharp mask.
func Preprocess(img image.Image, enhance bool) *image.Gray {
	var out image.Image = imaging.Grayscale(img)
	if enhance {
		out = boostContrast(out, ContrastFactor)
		out = boostSharpness(out, SharpnessFactor)
		return unsharpMask(toGray(out), UnsharpRadius, UnsharpPercent, UnsharpThreshold)
	}
	return toGray(out)
}

// boostContrast blends img away from a flat image of its mean luminance.
func boostContrast(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	mean := meanLuminance(img)
	flat := imaging.New(b.Dx(), b.Dy(), color.Gray{Y: mean})
	return extrapolate(flat, imaging.Clone(img), factor)
}

// boostSharpness blends img away from a smoothed copy of itself.
func boostSharpness(img image.Image, factor float64) image.Image {
	smooth := imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
	return extrapolate(smooth, imaging.Clone(img), factor)
}

// extrapolate returns base + factor*(img-base) per channel, clamped. Both
// images must share origin and size.
func extrapolate(base, img image.Image, factor float64) image.Image {
	return blend.Blend(base, img, func(c0, c1 fcolor.RGBAF64) fcolor.RGBAF64 {
		return fcolor.RGBAF64{
			R: clamp01(c0.R + factor*(c1.R-c0.R)),
			G: clamp01(c0.G + factor*(c1.G-c0.G)),
			B: clamp01(c0.B + factor*(c1.B-c0.B)),
			A: 1,
		}
	})
}

// unsharpMask adds percent% of the difference between img and its gaussian
// blur wherever that difference is at least threshold levels.
func unsharpMask(img *image.Gray, radius float64, percent, threshold int) *image.Gray {
	blurred := toGray(imaging.Blur(img, radius))
	out := image.NewGray(img.Rect)
	amount := float64(percent) / 100

	for i, v := range img.Pix {
		diff := int(v) - int(blurred.Pix[i])
		if abs(diff) < threshold {
			out.Pix[i] = v
			continue
		}
		out.Pix[i] = clampByte(float64(v) + float64(diff)*amount)
	}
	return out
}

func meanLuminance(img image.Image) uint8 {
	g := toGray(img)
	if len(g.Pix) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range g.Pix {
		sum += uint64(v)
	}
	return uint8(math.Round(float64(sum) / float64(len(g.Pix))))
}

// toGray copies img into a tightly packed *image.Gray with origin (0,0).
// Alpha is ignored.
func toGray(img image.Image) *image.Gray {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]
			out.Pix[y*out.Stride+x] = uint8((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
