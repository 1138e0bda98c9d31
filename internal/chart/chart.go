// Package chart renders simple line charts to PNG with gg.
package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
)

// ErrNoData is returned when a chart has no plottable points.
var ErrNoData = errors.New("chart has no data")

const (
	defaultWidth  = 1000
	defaultHeight = 600
	ticks         = 5

	marginLeft   = 80.0
	marginRight  = 30.0
	marginTop    = 50.0
	marginBottom = 60.0
)

// palette is used for series without an explicit color.
var palette = []color.Color{
	color.RGBA{31, 119, 180, 255},
	color.RGBA{255, 127, 14, 255},
	color.RGBA{44, 160, 44, 255},
	color.RGBA{214, 39, 40, 255},
	color.RGBA{148, 103, 189, 255},
	color.RGBA{140, 86, 75, 255},
}

// Series is one line of a chart. X and Y must have the same length;
// NaN values break the line.
type Series struct {
	Name  string
	X     []float64
	Y     []float64
	Color color.Color
}

// LineChart describes a chart with a title, axis labels, grid and legend.
type LineChart struct {
	Title    string
	XLabel   string
	YLabel   string
	Series   []Series
	Width    int
	Height   int
	FontPath string // optional TTF; the built-in bitmap face is used when empty
}

// Save renders the chart and writes it as PNG to path.
func (c *LineChart) Save(path string) error {
	img, err := c.Render()
	if err != nil {
		return err
	}

	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}

	return nil
}

// Render draws the chart and returns the image.
func (c *LineChart) Render() (image.Image, error) {
	dc, err := c.draw()
	if err != nil {
		return nil, err
	}

	return dc.Image(), nil
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (c *LineChart) dataBounds() (bounds, error) {
	b := bounds{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}

	points := 0
	for _, s := range c.Series {
		if len(s.X) != len(s.Y) {
			return b, fmt.Errorf("series %q: %d x values but %d y values", s.Name, len(s.X), len(s.Y))
		}
		for i := range s.X {
			x, y := s.X[i], s.Y[i]
			if math.IsNaN(x) || math.IsNaN(y) {
				continue
			}
			b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
			b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
			points++
		}
	}

	if points == 0 {
		return b, ErrNoData
	}

	if b.minX == b.maxX {
		b.minX, b.maxX = b.minX-1, b.maxX+1
	}
	if b.minY == b.maxY {
		b.minY, b.maxY = b.minY-1, b.maxY+1
	}

	pad := (b.maxY - b.minY) * 0.05
	b.minY, b.maxY = b.minY-pad, b.maxY+pad

	return b, nil
}

func (c *LineChart) draw() (*gg.Context, error) {
	b, err := c.dataBounds()
	if err != nil {
		return nil, err
	}

	w, h := c.Width, c.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}

	dc := gg.NewContext(w, h)
	if c.FontPath != "" {
		if err := dc.LoadFontFace(c.FontPath, 13); err != nil {
			return nil, fmt.Errorf("failed to load font: %w", err)
		}
	}

	dc.SetColor(color.White)
	dc.Clear()

	left, top := marginLeft, marginTop
	right, bottom := float64(w)-marginRight, float64(h)-marginBottom

	px := func(x float64) float64 { return left + (x-b.minX)/(b.maxX-b.minX)*(right-left) }
	py := func(y float64) float64 { return bottom - (y-b.minY)/(b.maxY-b.minY)*(bottom-top) }

	// Grid and tick labels.
	dc.SetLineWidth(1)
	for i := 0; i <= ticks; i++ {
		fx := b.minX + (b.maxX-b.minX)*float64(i)/ticks
		fy := b.minY + (b.maxY-b.minY)*float64(i)/ticks

		dc.SetColor(color.Gray{Y: 225})
		dc.DrawLine(px(fx), top, px(fx), bottom)
		dc.DrawLine(left, py(fy), right, py(fy))
		dc.Stroke()

		dc.SetColor(color.Gray{Y: 60})
		dc.DrawStringAnchored(formatTick(fx), px(fx), bottom+6, 0.5, 1)
		dc.DrawStringAnchored(formatTick(fy), left-6, py(fy), 1, 0.5)
	}

	// Axes.
	dc.SetColor(color.Black)
	dc.SetLineWidth(1.5)
	dc.DrawLine(left, bottom, right, bottom)
	dc.DrawLine(left, top, left, bottom)
	dc.Stroke()

	// Series.
	dc.SetLineWidth(2)
	for i, s := range c.Series {
		dc.SetColor(seriesColor(s, i))
		drawing := false
		for j := range s.X {
			if math.IsNaN(s.X[j]) || math.IsNaN(s.Y[j]) {
				drawing = false
				continue
			}
			if drawing {
				dc.LineTo(px(s.X[j]), py(s.Y[j]))
			} else {
				dc.MoveTo(px(s.X[j]), py(s.Y[j]))
				drawing = true
			}
		}
		dc.Stroke()
	}

	// Labels.
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(c.Title, float64(w)/2, top/2, 0.5, 0.5)
	dc.DrawStringAnchored(c.XLabel, (left+right)/2, float64(h)-15, 0.5, 0)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 18, (top+bottom)/2)
	dc.DrawStringAnchored(c.YLabel, 18, (top+bottom)/2, 0.5, 0.5)
	dc.Pop()

	c.drawLegend(dc, right)

	return dc, nil
}

func (c *LineChart) drawLegend(dc *gg.Context, right float64) {
	named := 0
	widest := 0.0
	for _, s := range c.Series {
		if s.Name == "" {
			continue
		}
		named++
		if tw, _ := dc.MeasureString(s.Name); tw > widest {
			widest = tw
		}
	}
	if named == 0 {
		return
	}

	const (
		rowH   = 20.0
		swatch = 24.0
		pad    = 8.0
	)

	boxW := widest + swatch + 3*pad
	boxH := float64(named)*rowH + pad
	x0 := right - boxW - pad
	y0 := marginTop + pad

	dc.SetColor(color.RGBA{255, 255, 255, 230})
	dc.DrawRectangle(x0, y0, boxW, boxH)
	dc.FillPreserve()
	dc.SetColor(color.Gray{Y: 180})
	dc.SetLineWidth(1)
	dc.Stroke()

	row := 0
	for i, s := range c.Series {
		if s.Name == "" {
			continue
		}
		cy := y0 + pad/2 + rowH*float64(row) + rowH/2

		dc.SetColor(seriesColor(s, i))
		dc.SetLineWidth(2)
		dc.DrawLine(x0+pad, cy, x0+pad+swatch, cy)
		dc.Stroke()

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(s.Name, x0+2*pad+swatch, cy, 0, 0.5)
		row++
	}
}

func seriesColor(s Series, i int) color.Color {
	if s.Color != nil {
		return s.Color
	}

	return palette[i%len(palette)]
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
