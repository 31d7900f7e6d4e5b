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

	chart "github.com/wcharczuk/go-chart/v2"
)

// Bar is one bar of a Bars chart.
type Bar struct {
	Label string
	Value float64
	Color color.RGBA
}

// Bars is a labelled bar chart.
type Bars struct {
	Title, YName string
	Bars         []Bar

	// YMin and YMax fix the value axis.  When both are zero the axis spans
	// the data.
	YMin, YMax float64
}

// Render draws the bar chart to w.  Bars without a finite value are
// skipped.
func (b *Bars) Render(w io.Writer, format Format) error {
	var values []chart.Value
	var finite []float64
	for _, bar := range b.Bars {
		if math.IsNaN(bar.Value) || math.IsInf(bar.Value, 0) {
			continue
		}
		values = append(values, chart.Value{
			Label: bar.Label,
			Value: bar.Value,
			Style: chart.Style{
				FillColor:   toDrawing(bar.Color),
				StrokeColor: toDrawing(bar.Color),
			},
		})
		finite = append(finite, bar.Value)
	}
	if len(values) == 0 {
		return errNoData
	}

	yRange := &chart.ContinuousRange{Min: b.YMin, Max: b.YMax}
	if b.YMin == 0 && b.YMax == 0 {
		yRange = paddedRange(finite)
	}

	barWidth, barSpacing := 40, 20
	width := 200 + len(values)*(barWidth+barSpacing)
	if width < 400 {
		width = 400
	}

	ch := chart.BarChart{
		Title:      b.Title,
		Width:      width,
		Height:     500,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 40},
		},
		YAxis: chart.YAxis{
			Name:           b.YName,
			Range:          yRange,
			ValueFormatter: tickFormatter,
		},
		Bars: values,
	}
	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("rendering bar chart: %v", err)
	}
	return nil
}
