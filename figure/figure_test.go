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
	"bytes"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/drepviz/internal/linkage"
	"github.com/googlegenomics/drepviz/internal/table"
)

func testMatrix(t *testing.T) *table.Matrix {
	db := table.Mdb{
		{Genome1: "a", Genome2: "a", Similarity: 1}, {Genome1: "a", Genome2: "b", Similarity: 0.9}, {Genome1: "a", Genome2: "c", Similarity: 0.8},
		{Genome1: "b", Genome2: "a", Similarity: 0.9}, {Genome1: "b", Genome2: "b", Similarity: 1}, {Genome1: "b", Genome2: "c", Similarity: 0.85},
		{Genome1: "c", Genome2: "a", Similarity: 0.8}, {Genome1: "c", Genome2: "b", Similarity: 0.85}, {Genome1: "c", Genome2: "c", Similarity: 1},
	}
	m, err := db.Pivot()
	require.NoError(t, err)
	return m
}

func testLinkage(t *testing.T) *linkage.Linkage {
	l, err := linkage.Read(strings.NewReader(`{"linkage": [[1, 2, 0.15, 2], [0, 3, 0.2, 3]]}`))
	require.NoError(t, err)
	return l
}

var testColors = map[string]color.RGBA{
	"a": {255, 0, 0, 255},
	"b": {0, 255, 0, 255},
	"c": {0, 0, 255, 255},
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, "png", f.Extension())
	assert.Equal(t, "image/svg+xml", SVG.ContentType())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestHeatmapSVG(t *testing.T) {
	h := &Heatmap{
		Title:   "MASH clustering",
		Matrix:  testMatrix(t),
		Linkage: testLinkage(t),
		VMin:    0.8,
		VMax:    1,
		Colors:  testColors,
	}
	var buf bytes.Buffer
	require.NoError(t, h.Render(&buf, SVG))
	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "MASH clustering")
}

func TestHeatmapOrder(t *testing.T) {
	h := &Heatmap{Matrix: testMatrix(t), Linkage: testLinkage(t)}
	m, lay, err := h.ordered()
	require.NoError(t, err)
	require.NotNil(t, lay)
	assert.Equal(t, []string{"a", "b", "c"}, m.Rows)

	l, err := linkage.Read(strings.NewReader(`{"genomes": ["c", "b", "a"], "linkage": [[0, 1, 0.15, 2], [3, 2, 0.2, 3]]}`))
	require.NoError(t, err)
	h.Linkage = l
	m, _, err = h.ordered()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, m.Rows)
	assert.Equal(t, m.Rows, m.Cols)
	assert.Equal(t, 0.85, m.At(0, 1))
}

func TestHeatmapPNG(t *testing.T) {
	h := &Heatmap{Title: "MASH ANI", Matrix: testMatrix(t)}
	var buf bytes.Buffer
	require.NoError(t, h.Render(&buf, PNG))
	_, err := png.Decode(&buf)
	assert.NoError(t, err)
}

func TestHeatmapErrors(t *testing.T) {
	nonSquare, err := table.Mdb{{Genome1: "a", Genome2: "b", Similarity: 1}, {Genome1: "c", Genome2: "d", Similarity: 1}}.Pivot()
	require.NoError(t, err)
	allMissing, err := table.Mdb{{Genome1: "a", Genome2: "a", Similarity: math.NaN()}}.Pivot()
	require.NoError(t, err)

	testCases := []struct {
		name string
		h    *Heatmap
	}{
		{"no matrix", &Heatmap{}},
		{"non-square with linkage", &Heatmap{Matrix: nonSquare, Linkage: testLinkage(t)}},
		{"no finite values", &Heatmap{Matrix: allMissing}},
		{"missing color", &Heatmap{Matrix: testMatrix(t), Colors: map[string]color.RGBA{"a": {}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.h.Render(&buf, SVG); err == nil {
				t.Error("Render succeeded, want error")
			}
		})
	}
}

func TestDendrogram(t *testing.T) {
	d := &Dendrogram{
		Title:     "MASH clustering",
		YLabel:    "distance (about 1 - MASH_ANI)",
		Linkage:   testLinkage(t),
		Names:     []string{"a", "b", "c"},
		Colors:    testColors,
		Threshold: 0.1,
		YMax:      1,
	}
	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf, SVG))
	assert.Contains(t, buf.String(), "distance (about 1 - MASH_ANI)")

	d.Names = []string{"a", "b"}
	assert.Error(t, d.Render(&buf, SVG), "name count mismatch")

	d.Names = []string{"a", "b", "x"}
	assert.Error(t, d.Render(&buf, SVG), "uncolored label")
}

func TestScatter(t *testing.T) {
	s := &Scatter{
		XName: "ANIn",
		YName: "MASH_ANI",
		X:     []float64{0.96, 0.97, 0.99, 1},
		Y:     []float64{0.95, 0.96, 0.985, 1},
	}
	p, err := s.Correlation()
	require.NoError(t, err)
	assert.True(t, p.R > 0.9)

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf, SVG))
	assert.Contains(t, buf.String(), "pearsonr")
}

func TestScatterSinglePoint(t *testing.T) {
	s := &Scatter{XName: "x", YName: "y", X: []float64{1}, Y: []float64{1}}
	var buf bytes.Buffer
	assert.NoError(t, s.Render(&buf, SVG))
}

func TestScatterPoints(t *testing.T) {
	s := &Scatter{X: []float64{1, math.NaN(), 2}, Y: []float64{1, 1, math.Inf(1)}}
	assert.Equal(t, 1, s.Points())
	assert.Equal(t, 0, (&Scatter{}).Points())
	assert.Equal(t, 0, (&Scatter{X: []float64{1}}).Points())
}

func TestScatterErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, (&Scatter{X: []float64{1}}).Render(&buf, SVG))
	assert.Error(t, (&Scatter{X: []float64{math.NaN()}, Y: []float64{1}}).Render(&buf, SVG))
}

func TestBars(t *testing.T) {
	b := &Bars{
		Title: "Cluster tightness",
		YName: "ANIn",
		Bars: []Bar{
			{"1_0", 0.99, testColors["a"]},
			{"1_1", math.NaN(), testColors["b"]},
			{"between", 0.95, color.RGBA{128, 128, 128, 255}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf, SVG))
	assert.Contains(t, buf.String(), "1_0")
	assert.NotContains(t, buf.String(), "1_1")

	assert.Error(t, (&Bars{}).Render(&buf, SVG))
}
