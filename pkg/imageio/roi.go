package imageio

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/perioscan/perioscan/pkg/geometry"
)

// ExtractRotatedROI produces the rotation-corrected crop for an oriented
// box: the returned image is the [0,w]x[0,h] ROI whose pixel (rx,ry)
// shows the source pixel geometry.FromROILocal maps it to. Because the
// sampling runs through the same transform the landmark remap uses,
// retained points and pixels stay aligned. Samples falling outside the
// source image are black.
func ExtractRotatedROI(src image.Image, box geometry.OBB) *image.NRGBA {
	outW := int(math.Round(box.Width))
	outH := int(math.Round(box.Height))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	// Clone gives a zero-origin NRGBA for direct pixel access.
	nrgba := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, outW, outH))

	for v := 0; v < outH; v++ {
		for u := 0; u < outW; u++ {
			sx, sy := geometry.FromROILocal(float64(u), float64(v), box)
			out.SetNRGBA(u, v, sampleBilinear(nrgba, sx, sy))
		}
	}
	return out
}

// sampleBilinear interpolates the four neighbors of a continuous source
// coordinate. Coordinates outside the image contribute black.
func sampleBilinear(img *image.NRGBA, x, y float64) color.NRGBA {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := pixelAt(img, x0, y0)
	c10 := pixelAt(img, x0+1, y0)
	c01 := pixelAt(img, x0, y0+1)
	c11 := pixelAt(img, x0+1, y0+1)

	lerp := func(a, b uint8, t float64) float64 {
		return float64(a)*(1-t) + float64(b)*t
	}
	blend := func(a00, a10, a01, a11 uint8) uint8 {
		top := lerp(a00, a10, fx)
		bottom := lerp(a01, a11, fx)
		return uint8(math.Round(top*(1-fy) + bottom*fy))
	}

	return color.NRGBA{
		R: blend(c00.R, c10.R, c01.R, c11.R),
		G: blend(c00.G, c10.G, c01.G, c11.G),
		B: blend(c00.B, c10.B, c01.B, c11.B),
		A: blend(c00.A, c10.A, c01.A, c11.A),
	}
}

func pixelAt(img *image.NRGBA, x, y int) color.NRGBA {
	if x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return color.NRGBA{0, 0, 0, 255}
	}
	i := y*img.Stride + x*4
	return color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
}
