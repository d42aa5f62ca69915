package core

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextVertex matches the vertex layout of the HUD text pipeline.
type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// TextItem is one HUD string. Position is in pixels from the top-left corner.
type TextItem struct {
	Text     string
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

const (
	firstGlyph rune = ' '
	lastGlyph  rune = '~'

	atlasColumns int = 16
)

// TextAtlas is an alpha-only grid of printable ASCII cells rendered from a
// monospace face. Every glyph occupies one Cell-sized slot.
type TextAtlas struct {
	Image *image.Alpha
	Cell  image.Point
	Face  font.Face
}

// NewDefaultTextAtlas builds an atlas from the bundled Go Mono face.
func NewDefaultTextAtlas(fontSize float64) (*TextAtlas, error) {
	return NewTextAtlas(gomono.TTF, fontSize)
}

func NewTextAtlas(fontBytes []byte, fontSize float64) (*TextAtlas, error) {
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}

	adv, ok := face.GlyphAdvance('M')
	if !ok {
		return nil, fmt.Errorf("font has no advance for 'M'")
	}
	metrics := face.Metrics()
	cell := image.Pt(adv.Ceil(), metrics.Height.Ceil())
	rows := (int(lastGlyph-firstGlyph) + atlasColumns) / atlasColumns

	ta := &TextAtlas{
		Image: image.NewAlpha(image.Rect(0, 0, atlasColumns*cell.X, rows*cell.Y)),
		Cell:  cell,
		Face:  face,
	}
	d := font.Drawer{Dst: ta.Image, Src: image.Opaque, Face: face}
	for r := firstGlyph; r <= lastGlyph; r++ {
		origin := ta.cellOrigin(r)
		d.Dot = fixed.P(origin.X, origin.Y+metrics.Ascent.Ceil())
		d.DrawString(string(r))
	}
	return ta, nil
}

// Has reports whether r has a cell in the atlas.
func (ta *TextAtlas) Has(r rune) bool {
	return r >= firstGlyph && r <= lastGlyph
}

func (ta *TextAtlas) cellOrigin(r rune) image.Point {
	i := int(r - firstGlyph)
	return image.Pt((i%atlasColumns)*ta.Cell.X, (i/atlasColumns)*ta.Cell.Y)
}

// CellUV returns the normalized texture rectangle of r.
func (ta *TextAtlas) CellUV(r rune) (uvMin, uvMax [2]float32) {
	o := ta.cellOrigin(r)
	w, h := float32(ta.Image.Rect.Dx()), float32(ta.Image.Rect.Dy())
	uvMin = [2]float32{float32(o.X) / w, float32(o.Y) / h}
	uvMax = [2]float32{float32(o.X+ta.Cell.X) / w, float32(o.Y+ta.Cell.Y) / h}
	return uvMin, uvMax
}

// BuildVertices lays out items as two clip-space triangles per visible
// glyph. Spaces and runes outside the atlas only advance the pen.
func (ta *TextAtlas) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	vertices := make([]TextVertex, 0, 64*6)
	if screenW <= 0 || screenH <= 0 {
		return vertices
	}
	toClipX := func(px float32) float32 { return px/float32(screenW)*2 - 1 }
	toClipY := func(py float32) float32 { return 1 - py/float32(screenH)*2 }

	for _, item := range items {
		cw := float32(ta.Cell.X) * item.Scale
		ch := float32(ta.Cell.Y) * item.Scale
		x, y := item.Position[0], item.Position[1]

		for _, r := range item.Text {
			if r == '\n' {
				x = item.Position[0]
				y += ch
				continue
			}
			if r != ' ' && ta.Has(r) {
				uv0, uv1 := ta.CellUV(r)
				x0, y0 := toClipX(x), toClipY(y)
				x1, y1 := toClipX(x+cw), toClipY(y+ch)
				c := item.Color
				vertices = append(vertices,
					TextVertex{[2]float32{x0, y0}, [2]float32{uv0[0], uv0[1]}, c},
					TextVertex{[2]float32{x1, y0}, [2]float32{uv1[0], uv0[1]}, c},
					TextVertex{[2]float32{x0, y1}, [2]float32{uv0[0], uv1[1]}, c},
					TextVertex{[2]float32{x1, y0}, [2]float32{uv1[0], uv0[1]}, c},
					TextVertex{[2]float32{x1, y1}, [2]float32{uv1[0], uv1[1]}, c},
					TextVertex{[2]float32{x0, y1}, [2]float32{uv0[0], uv1[1]}, c},
				)
			}
			x += cw
		}
	}
	return vertices
}

// MeasureText returns the pixel extent of text at scale.
func (ta *TextAtlas) MeasureText(text string, scale float32) (float32, float32) {
	if ta == nil {
		return 0, 0
	}
	widest, current, lines := 0, 0, 1
	for _, r := range text {
		if r == '\n' {
			current = 0
			lines++
			continue
		}
		current++
		widest = max(widest, current)
	}
	return float32(widest*ta.Cell.X) * scale, float32(lines*ta.Cell.Y) * scale
}
