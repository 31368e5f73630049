package captcha

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"math/rand/v2"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Image geometry and clutter amounts.
const (
	Width  = 280
	Height = 60

	fontSize   = 24
	noiseLines = 5
	noiseDots  = 30

	tileSize    = 48
	tileOriginX = 8
	tileOriginY = 34
)

var inkColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// Renderer draws challenges. Output is randomised on every call and is not
// meant to be reproducible.
type Renderer struct {
	mu    sync.Mutex // font faces are not safe for concurrent use
	faces []font.Face
}

// NewRenderer loads the four font families a glyph may be drawn with.
func NewRenderer() (*Renderer, error) {
	fonts := [][]byte{goregular.TTF, gomono.TTF, gobold.TTF, goitalic.TTF}
	faces := make([]font.Face, 0, len(fonts))
	for _, ttf := range fonts {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font: %w", err)
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("create font face: %w", err)
		}
		faces = append(faces, face)
	}
	return &Renderer{faces: faces}, nil
}

// Render writes c as a PNG: faint random lines, each character in a random
// face with a small rotation and vertical jitter, then speckle dots.
func (r *Renderer) Render(w io.Writer, c Challenge) error {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i := 0; i < noiseLines; i++ {
		col := color.NRGBA{A: uint8(rand.Float64() * 0.3 * 255)}
		strokeLine(canvas,
			rand.Float64()*Width, rand.Float64()*Height,
			rand.Float64()*Width, rand.Float64()*Height,
			col)
	}

	r.mu.Lock()
	for i, ch := range string(c) {
		face := r.faces[rand.IntN(len(r.faces))]
		x := 20 + float64(i)*25
		y := 35 + (rand.Float64()-0.5)*10
		angle := (rand.Float64() - 0.5) * 0.4
		drawGlyph(canvas, face, ch, x, y, angle)
	}
	r.mu.Unlock()

	for i := 0; i < noiseDots; i++ {
		col := color.NRGBA{A: uint8(rand.Float64() * 0.2 * 255)}
		fillDot(canvas, rand.Float64()*Width, rand.Float64()*Height, 1, col)
	}

	if err := png.Encode(w, canvas); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// drawGlyph renders ch on a scratch tile and maps the tile's baseline origin
// to (x, y) on dst, rotated by angle radians.
func drawGlyph(dst draw.Image, face font.Face, ch rune, x, y, angle float64) {
	tile := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	d := font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(inkColor),
		Face: face,
		Dot:  fixed.P(tileOriginX, tileOriginY),
	}
	d.DrawString(string(ch))

	sin, cos := math.Sincos(angle)
	m := f64.Aff3{
		cos, -sin, x - (cos*tileOriginX - sin*tileOriginY),
		sin, cos, y - (sin*tileOriginX + cos*tileOriginY),
	}
	draw.BiLinear.Transform(dst, m, tile, tile.Bounds(), draw.Over, nil)
}

// strokeLine fills a one-pixel-wide quad between the two points.
func strokeLine(dst draw.Image, x0, y0, x1, y1 float64, col color.Color) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*0.5, dx/l*0.5

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// fillDot approximates a circle with a 12-sided polygon.
func fillDot(dst draw.Image, cx, cy, radius float64, col color.Color) {
	const sides = 12
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	for i := 0; i <= sides; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / sides)
		px, py := float32(cx+radius*cos), float32(cy+radius*sin)
		if i == 0 {
			z.MoveTo(px, py)
			continue
		}
		z.LineTo(px, py)
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}
