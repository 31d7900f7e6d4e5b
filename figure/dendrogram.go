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

package figure

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/googlegenomics/drepviz/internal/linkage"
)

// Dendrogram draws a linkage with its leaves labelled along the bottom.
type Dendrogram struct {
	Title, YLabel string
	Linkage       *linkage.Linkage

	// Names labels the leaves in index order.  Linkage.Genomes is used when
	// Names is empty.
	Names []string

	// Colors, when set, colors each leaf label.
	Colors map[string]color.RGBA

	// Threshold, when positive, is marked with a horizontal line.
	Threshold float64

	// YMin and YMax fix the y axis.  When both are zero the axis spans the
	// tree.
	YMin, YMax float64

	// Width and Height default to 800 by 1000.
	Width, Height int
}

const (
	dendrogramMarginLeft   = 70
	dendrogramMarginRight  = 20
	dendrogramMarginTop    = 50
	dendrogramMarginBottom = 20
)

// Render draws the dendrogram to w.
func (d *Dendrogram) Render(w io.Writer, format Format) error {
	if d.Linkage == nil {
		return errNoData
	}
	names := d.Names
	if len(names) == 0 {
		names = d.Linkage.Genomes
	}
	if err := d.Linkage.Validate(len(names)); err != nil {
		return fmt.Errorf("linkage does not match %d names: %v", len(names), err)
	}

	lay := d.Linkage.Layout()
	labels := lay.Labels(names)

	width, height := d.Width, d.Height
	if width == 0 {
		width = 800
	}
	if height == 0 {
		height = 1000
	}

	r, err := measurer()
	if err != nil {
		return err
	}
	labelHeight := maxTextWidth(r, labels, labelFontSize)

	left, right := dendrogramMarginLeft, width-dendrogramMarginRight
	top := dendrogramMarginTop
	bottom := height - dendrogramMarginBottom - labelHeight - 6
	// Keep at least half the figure for the tree, as long labels otherwise
	// squeeze it flat.
	if bottom < height/2 {
		bottom = height / 2
	}

	ymin, ymax := d.YMin, d.YMax
	if ymin == 0 && ymax == 0 {
		ymax = lay.Height
		if ymax <= 0 {
			ymax = 1
		}
	}
	if ymax <= ymin {
		return fmt.Errorf("invalid y range [%v, %v]", ymin, ymax)
	}
	py := func(v float64) float64 {
		v = math.Max(ymin, math.Min(ymax, v))
		return float64(bottom) - (v-ymin)/(ymax-ymin)*float64(bottom-top)
	}
	px := func(v float64) float64 {
		return float64(left) + v/lay.Width*float64(right-left)
	}

	c, err := newCanvas(format, width, height)
	if err != nil {
		return err
	}
	c.text(d.Title, (left+right)/2, top-titleFontSize, titleFontSize, black, anchorMiddle)

	for _, link := range lay.Links {
		xs, ys := make([]float64, 4), make([]float64, 4)
		for k := 0; k < 4; k++ {
			xs[k], ys[k] = px(link.X[k]), py(link.Y[k])
		}
		c.polyline(xs, ys, linkColor, 1.5)
	}

	if d.Threshold > 0 {
		y := py(d.Threshold)
		c.line(float64(left), y, float64(right), y, black, 1)
	}

	c.line(float64(left), float64(top), float64(left), float64(bottom), black, 1)
	for _, v := range linearTicks(ymin, ymax, 5) {
		y := py(v)
		c.line(float64(left-4), y, float64(left), y, black, 1)
		c.text(formatTick(v), left-6, round(y)+tickFontSize/2, tickFontSize, black, anchorEnd)
	}
	if d.YLabel != "" {
		mid := (top + bottom) / 2
		c.ResetStyle()
		c.SetFontSize(labelFontSize)
		c.SetFontColor(toDrawing(black))
		c.SetTextRotation(-math.Pi / 2)
		c.Text(d.YLabel, left-45, mid+c.MeasureText(d.YLabel).Width()/2)
		c.ClearTextRotation()
	}

	for k, label := range labels {
		col := black
		if d.Colors != nil {
			var ok bool
			if col, ok = d.Colors[label]; !ok {
				return fmt.Errorf("no color for genome %q", label)
			}
		}
		x := round(px(linkage.LeafSpacing/2+float64(k)*linkage.LeafSpacing)) - labelFontSize/2
		c.verticalText(label, x, bottom+6, labelFontSize, col)
	}

	if err := c.Save(w); err != nil {
		return fmt.Errorf("saving dendrogram: %v", err)
	}
	return nil
}

var linkColor = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
