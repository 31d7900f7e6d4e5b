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

	"github.com/googlegenomics/drepviz/internal/linkage"
	"github.com/googlegenomics/drepviz/internal/palette"
	"github.com/googlegenomics/drepviz/internal/table"
)

// Heatmap is a clustered heatmap of a similarity matrix.
type Heatmap struct {
	Title  string
	Matrix *table.Matrix

	// Linkage, when set, orders both rows and columns and is drawn as
	// dendrograms along the top and left edges.  The matrix must then be
	// square with identical row and column names.
	Linkage *linkage.Linkage

	// VMin and VMax anchor the color map.  When both are zero the range of
	// the data is used.
	VMin, VMax float64

	// Colors, when set, adds a strip beside the rows and columns showing
	// each genome's color.
	Colors map[string]color.RGBA

	// Map defaults to palette.Rocket.
	Map palette.Map
}

const (
	heatmapMargin     = 20
	heatmapTreeSize   = 100
	heatmapStripSize  = 12
	heatmapStripGap   = 3
	heatmapBarWidth   = 16
	heatmapBarSpacing = 50
	heatmapMaxSide    = 640
)

// Render draws the heatmap to w.
func (h *Heatmap) Render(w io.Writer, format Format) error {
	m, lay, err := h.ordered()
	if err != nil {
		return err
	}
	rows, cols := m.Dims()

	vmin, vmax, err := h.colorRange(m)
	if err != nil {
		return err
	}
	cmap := h.Map
	if cmap == nil {
		cmap = palette.Rocket
	}

	side := rows
	if cols > side {
		side = cols
	}
	cell := heatmapMaxSide / side
	if cell > 30 {
		cell = 30
	}
	if cell < 2 {
		cell = 2
	}

	r, err := measurer()
	if err != nil {
		return err
	}
	rowLabelWidth := maxTextWidth(r, m.Rows, labelFontSize)
	colLabelHeight := maxTextWidth(r, m.Cols, labelFontSize)

	tree := 0
	if lay != nil {
		tree = heatmapTreeSize
	}
	strip := 0
	if h.Colors != nil {
		strip = heatmapStripSize + heatmapStripGap
	}

	left := heatmapMargin + tree + strip
	top := heatmapMargin + 2*titleFontSize + tree + strip
	gridW, gridH := cols*cell, rows*cell
	width := left + gridW + heatmapStripGap + rowLabelWidth + heatmapBarSpacing + heatmapBarWidth + heatmapBarSpacing + heatmapMargin
	height := top + gridH + heatmapStripGap + colLabelHeight + heatmapMargin

	c, err := newCanvas(format, width, height)
	if err != nil {
		return err
	}

	c.text(h.Title, width/2, heatmapMargin+titleFontSize, titleFontSize, black, anchorMiddle)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x, y := left+j*cell, top+i*cell
			c.rect(x, y, x+cell, y+cell, palette.Scale(cmap, m.At(i, j), vmin, vmax))
		}
	}

	if h.Colors != nil {
		if err := h.drawStrips(c, m, left, top, cell); err != nil {
			return err
		}
	}

	if lay != nil {
		h.drawTrees(c, lay, left, top, strip, gridW, gridH)
	}

	for i, name := range m.Rows {
		c.text(name, left+gridW+heatmapStripGap, top+i*cell+cell/2+labelFontSize/2, labelFontSize, black, anchorStart)
	}
	for j, name := range m.Cols {
		c.verticalText(name, left+j*cell+cell/2-labelFontSize/2, top+gridH+heatmapStripGap, labelFontSize, black)
	}

	barX := left + gridW + heatmapStripGap + rowLabelWidth + heatmapBarSpacing
	drawColorBar(c, cmap, barX, top, heatmapBarWidth, gridH, vmin, vmax)

	if err := c.Save(w); err != nil {
		return fmt.Errorf("saving heatmap: %v", err)
	}
	return nil
}

// Ordered returns the matrix with its rows and columns in drawing order,
// together with the values anchoring the two ends of the color map.
func (h *Heatmap) Ordered() (*table.Matrix, float64, float64, error) {
	m, _, err := h.ordered()
	if err != nil {
		return nil, 0, 0, err
	}
	vmin, vmax, err := h.colorRange(m)
	return m, vmin, vmax, err
}

func (h *Heatmap) colorRange(m *table.Matrix) (float64, float64, error) {
	if h.VMin != 0 || h.VMax != 0 {
		return h.VMin, h.VMax, nil
	}
	vmin, vmax, ok := finiteRange(m.Values.RawMatrix().Data)
	if !ok {
		return 0, 0, errNoData
	}
	return vmin, vmax, nil
}

// ordered returns the matrix in drawing order together with the dendrogram
// layout, if any.
func (h *Heatmap) ordered() (*table.Matrix, *linkage.Layout, error) {
	m := h.Matrix
	if m == nil {
		return nil, nil, errNoData
	}
	if rows, cols := m.Dims(); rows == 0 || cols == 0 {
		return nil, nil, errNoData
	}
	if h.Linkage == nil {
		return m, nil, nil
	}

	if !sameNames(m.Rows, m.Cols) {
		return nil, nil, fmt.Errorf("clustered heatmap needs a square matrix, got %d rows and %d columns", len(m.Rows), len(m.Cols))
	}
	if err := h.Linkage.Validate(len(m.Rows)); err != nil {
		return nil, nil, fmt.Errorf("linkage does not match matrix: %v", err)
	}

	names := h.Linkage.Genomes
	if len(names) == 0 {
		names = m.Rows
	}
	lay := h.Linkage.Layout()
	index := make(map[string]int, len(m.Rows))
	for i, name := range m.Rows {
		index[name] = i
	}
	order := make([]int, len(lay.Order))
	for k, name := range lay.Labels(names) {
		i, ok := index[name]
		if !ok {
			return nil, nil, fmt.Errorf("linkage genome %q is not in the matrix", name)
		}
		order[k] = i
	}

	reordered, err := m.Reorder(order, order)
	if err != nil {
		return nil, nil, err
	}
	return reordered, lay, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (h *Heatmap) drawStrips(c *canvas, m *table.Matrix, left, top, cell int) error {
	for i, name := range m.Rows {
		col, ok := h.Colors[name]
		if !ok {
			return fmt.Errorf("no color for genome %q", name)
		}
		y := top + i*cell
		c.rect(left-heatmapStripGap-heatmapStripSize, y, left-heatmapStripGap, y+cell, col)
	}
	for j, name := range m.Cols {
		col, ok := h.Colors[name]
		if !ok {
			return fmt.Errorf("no color for genome %q", name)
		}
		x := left + j*cell
		c.rect(x, top-heatmapStripGap-heatmapStripSize, x+cell, top-heatmapStripGap, col)
	}
	return nil
}

// drawTrees draws the column dendrogram above and the row dendrogram to the
// left of the grid whose top-left corner is (left, top), leaving a gap of
// strip pixels for the color strips.
func (h *Heatmap) drawTrees(c *canvas, lay *linkage.Layout, left, top, strip, gridW, gridH int) {
	height := lay.Height
	if height <= 0 {
		height = 1
	}
	for _, link := range lay.Links {
		xs := make([]float64, 4)
		ys := make([]float64, 4)
		for k := 0; k < 4; k++ {
			xs[k] = float64(left) + link.X[k]/lay.Width*float64(gridW)
			ys[k] = float64(top-strip) - link.Y[k]/height*heatmapTreeSize
		}
		c.polyline(xs, ys, black, 1)

		for k := 0; k < 4; k++ {
			xs[k] = float64(left-strip) - link.Y[k]/height*heatmapTreeSize
			ys[k] = float64(top) + link.X[k]/lay.Width*float64(gridH)
		}
		c.polyline(xs, ys, black, 1)
	}
}

// drawColorBar draws a vertical legend for cmap with vmax at the top.
func drawColorBar(c *canvas, cmap palette.Map, x, y, width, height int, vmin, vmax float64) {
	for k := 0; k < height; k++ {
		f := 1 - float64(k)/float64(height)
		c.rect(x, y+k, x+width, y+k+1, cmap(f))
	}
	for _, v := range linearTicks(vmin, vmax, 4) {
		ty := y
		if vmax > vmin {
			ty += round((1 - (v-vmin)/(vmax-vmin)) * float64(height))
		}
		c.line(float64(x+width), float64(ty), float64(x+width+3), float64(ty), black, 1)
		c.text(formatTick(v), x+width+5, ty+tickFontSize/2, tickFontSize, black, anchorStart)
	}
}
