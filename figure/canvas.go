// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package figure renders clustered heatmaps, dendrograms, scatterplots and
// bar charts of genome similarity data as SVG or PNG images.
package figure

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an output image format.
type Format int

const (
	SVG Format = iota
	PNG
)

// ParseFormat parses a format name such as "svg" or "png".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "svg":
		return SVG, nil
	case "png":
		return PNG, nil
	}
	return 0, fmt.Errorf("unsupported format %q", name)
}

// Extension returns the file extension, without the dot.
func (f Format) Extension() string {
	if f == PNG {
		return "png"
	}
	return "svg"
}

// ContentType returns the MIME type of images in this format.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == PNG {
		return chart.PNG
	}
	return chart.SVG
}

var errNoData = errors.New("nothing to plot")

const (
	titleFontSize = 14
	labelFontSize = 9
	tickFontSize  = 8
)

// canvas wraps a chart renderer with the drawing primitives the custom
// figures share.
type canvas struct {
	chart.Renderer
	width, height int
}

func newCanvas(format Format, width, height int) (*canvas, error) {
	r, err := format.provider()(width, height)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %v", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("loading font: %v", err)
	}
	r.SetFont(font)

	c := &canvas{r, width, height}
	c.rect(0, 0, width, height, color.RGBA{0xff, 0xff, 0xff, 0xff})
	return c, nil
}

// measurer returns a renderer usable only to measure text, so layouts can be
// sized before the real canvas exists.
func measurer() (chart.Renderer, error) {
	r, err := chart.SVG(1, 1)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)
	return r, nil
}

func toDrawing(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

var black = color.RGBA{0, 0, 0, 0xff}

// rect fills the rectangle with corners (x0, y0) and (x1, y1).
func (c *canvas) rect(x0, y0, x1, y1 int, fill color.RGBA) {
	c.ResetStyle()
	c.SetFillColor(toDrawing(fill))
	c.SetStrokeColor(toDrawing(fill))
	c.SetStrokeWidth(0)
	c.MoveTo(x0, y0)
	c.LineTo(x1, y0)
	c.LineTo(x1, y1)
	c.LineTo(x0, y1)
	c.Close()
	c.Fill()
}

// polyline strokes the path through the points.
func (c *canvas) polyline(xs, ys []float64, stroke color.RGBA, width float64) {
	c.ResetStyle()
	c.SetStrokeColor(toDrawing(stroke))
	c.SetStrokeWidth(width)
	c.MoveTo(round(xs[0]), round(ys[0]))
	for i := 1; i < len(xs); i++ {
		c.LineTo(round(xs[i]), round(ys[i]))
	}
	c.Stroke()
}

func (c *canvas) line(x0, y0, x1, y1 float64, stroke color.RGBA, width float64) {
	c.polyline([]float64{x0, x1}, []float64{y0, y1}, stroke, width)
}

type anchor int

const (
	anchorStart anchor = iota
	anchorMiddle
	anchorEnd
)

// text draws body with its baseline at y, positioned horizontally about x.
func (c *canvas) text(body string, x, y int, size float64, fill color.RGBA, a anchor) {
	c.ResetStyle()
	c.SetFontSize(size)
	c.SetFontColor(toDrawing(fill))
	w := c.MeasureText(body).Width()
	switch a {
	case anchorMiddle:
		x -= w / 2
	case anchorEnd:
		x -= w
	}
	c.Text(body, x, y)
}

// verticalText draws body rotated a quarter turn, reading downwards from
// (x, y).
func (c *canvas) verticalText(body string, x, y int, size float64, fill color.RGBA) {
	c.ResetStyle()
	c.SetFontSize(size)
	c.SetFontColor(toDrawing(fill))
	c.SetTextRotation(math.Pi / 2)
	c.Text(body, x, y)
	c.ClearTextRotation()
}

// maxTextWidth returns the widest rendering of labels at size.
func maxTextWidth(r chart.Renderer, labels []string, size float64) int {
	r.SetFontSize(size)
	var max int
	for _, label := range labels {
		if w := r.MeasureText(label).Width(); w > max {
			max = w
		}
	}
	return max
}

func round(v float64) int {
	return int(math.Round(v))
}

// linearTicks returns n+1 evenly spaced values covering [lo, hi].
func linearTicks(lo, hi float64, n int) []float64 {
	ticks := make([]float64, n+1)
	for i := range ticks {
		ticks[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	return ticks
}

func formatTick(v float64) string {
	return fmt.Sprintf("%.3g", v)
}

// finiteRange returns the range of finite values, and false if there are
// none.
func finiteRange(values []float64) (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, !math.IsInf(lo, 1)
}
