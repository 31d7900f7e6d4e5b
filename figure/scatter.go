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
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/googlegenomics/drepviz/internal/stats"
)

// Scatter plots one similarity metric against another and reports their
// correlation in the legend.
type Scatter struct {
	Title        string
	XName, YName string
	X, Y         []float64

	// Width and Height default to 700 by 700.
	Width, Height int
}

var scatterColor = drawing.Color{R: 0x4c, G: 0x72, B: 0xb0, A: 0xff}

// pointStyle renders points without connecting lines.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}

// Correlation returns the Pearson correlation of the plotted points.
func (s *Scatter) Correlation() (stats.Pearson, error) {
	return stats.Correlate(s.X, s.Y)
}

// Points returns the number of points with finite coordinates, which are
// the ones drawn.  Mismatched coordinates count as none.
func (s *Scatter) Points() int {
	if len(s.X) != len(s.Y) {
		return 0
	}
	xs, _ := stats.Finite(s.X, s.Y)
	return len(xs)
}

// Render draws the scatterplot to w.
func (s *Scatter) Render(w io.Writer, format Format) error {
	if len(s.X) != len(s.Y) {
		return fmt.Errorf("%d x values but %d y values", len(s.X), len(s.Y))
	}
	xs, ys := stats.Finite(s.X, s.Y)
	if len(xs) == 0 {
		return errNoData
	}

	name := fmt.Sprintf("n = %d", len(xs))
	if p, err := stats.Correlate(xs, ys); err == nil {
		name = p.String()
	}

	width, height := s.Width, s.Height
	if width == 0 {
		width = 700
	}
	if height == 0 {
		height = 700
	}

	ch := chart.Chart{
		Title:  s.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           s.XName,
			Range:          paddedRange(xs),
			ValueFormatter: tickFormatter,
		},
		YAxis: chart.YAxis{
			Name:           s.YName,
			Range:          paddedRange(ys),
			ValueFormatter: tickFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    name,
				Style:   pointStyle(scatterColor),
				XValues: xs,
				YValues: ys,
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("rendering scatterplot: %v", err)
	}
	return nil
}

// paddedRange spans the values with a small margin, and never collapses to
// a single point.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi, _ := finiteRange(values)
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 0.01)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func tickFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return formatTick(f)
	}
	return fmt.Sprintf("%v", v)
}
