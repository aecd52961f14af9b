package outline

import (
	"image"
	"math"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
)

// Rasterize renders the contours of o into a grayscale coverage image of
// the given pixel height. The em box [descender, descender+unitsPerEm] is
// mapped to the image height, the advance width determines the image width.
// Font space is y-up, so the image is flipped vertically.
//
// Rasterize is intended for previews; hinting is not applied.
func Rasterize(o *Outline, advance, unitsPerEm, descender float64, height int) *image.Alpha {
	if height <= 0 || unitsPerEm <= 0 {
		return image.NewAlpha(image.Rect(0, 0, 0, 0))
	}
	scale := float64(height) / unitsPerEm
	width := int(math.Ceil(advance * scale))
	if width <= 0 {
		width = height
	}
	img := image.NewAlpha(image.Rect(0, 0, width, height))
	p := o.Path()
	if len(p.Cmds) == 0 {
		return img
	}
	z := vector.NewRasterizer(width, height)
	tx := func(x, y float64) (float32, float32) {
		return float32(x * scale), float32(float64(height) - (y-descender)*scale)
	}
	fill(z, p, tx)
	z.Draw(img, img.Bounds(), image.Opaque, image.Point{})
	tracer().Debugf("rasterized outline into %dx%d pixels", width, height)
	return img
}

func fill(z *vector.Rasterizer, p *path.Data, tx func(x, y float64) (float32, float32)) {
	i := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			z.MoveTo(tx(p.Coords[i].X, p.Coords[i].Y))
			i++
		case path.CmdLineTo:
			z.LineTo(tx(p.Coords[i].X, p.Coords[i].Y))
			i++
		case path.CmdQuadTo:
			bx, by := tx(p.Coords[i].X, p.Coords[i].Y)
			cx, cy := tx(p.Coords[i+1].X, p.Coords[i+1].Y)
			z.QuadTo(bx, by, cx, cy)
			i += 2
		case path.CmdCubeTo:
			bx, by := tx(p.Coords[i].X, p.Coords[i].Y)
			cx, cy := tx(p.Coords[i+1].X, p.Coords[i+1].Y)
			dx, dy := tx(p.Coords[i+2].X, p.Coords[i+2].Y)
			z.CubeTo(bx, by, cx, cy, dx, dy)
			i += 3
		case path.CmdClose:
			z.ClosePath()
		}
	}
}

// PixelBounds maps a font-space box to the pixel rectangle Rasterize would
// cover for it.
func PixelBounds(box rect.Rect, unitsPerEm, descender float64, height int) image.Rectangle {
	scale := float64(height) / unitsPerEm
	r := image.Rect(
		int(math.Floor(box.LLx*scale)),
		int(math.Floor(float64(height)-(box.URy-descender)*scale)),
		int(math.Ceil(box.URx*scale)),
		int(math.Ceil(float64(height)-(box.LLy-descender)*scale)),
	)
	return r
}
