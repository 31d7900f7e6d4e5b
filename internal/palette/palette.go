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

// Package palette provides the color maps used by the figures and the
// assignment of colors to clusters.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/googlegenomics/drepviz/internal/table"
)

// Map maps a value in [0, 1] to a color.  Values outside the range are
// clamped.
type Map func(x float64) color.RGBA

type stop struct {
	at    float64
	color colorful.Color
}

// gradient interpolates linearly between stops, in RGB or, when lab is set,
// in CIE L*a*b*.
func gradient(lab bool, stops ...stop) Map {
	return func(x float64) color.RGBA {
		if math.IsNaN(x) || x <= stops[0].at {
			return toRGBA(stops[0].color)
		}
		if last := stops[len(stops)-1]; x >= last.at {
			return toRGBA(last.color)
		}
		for i := 1; i < len(stops); i++ {
			if x <= stops[i].at {
				lo, hi := stops[i-1], stops[i]
				t := (x - lo.at) / (hi.at - lo.at)
				if lab {
					return toRGBA(lo.color.BlendLab(hi.color, t).Clamped())
				}
				return toRGBA(lo.color.BlendRgb(hi.color, t))
			}
		}
		panic("unreachable")
	}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 0xff}
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("palette: bad color %q: %v", s, err))
	}
	return c
}

// GistRainbow is the categorical rainbow used to tell clusters apart.
var GistRainbow = gradient(false,
	stop{0.000, colorful.Color{R: 1.00, G: 0.00, B: 0.16}},
	stop{0.030, colorful.Color{R: 1.00, G: 0.00, B: 0.00}},
	stop{0.215, colorful.Color{R: 1.00, G: 1.00, B: 0.00}},
	stop{0.400, colorful.Color{R: 0.00, G: 1.00, B: 0.00}},
	stop{0.586, colorful.Color{R: 0.00, G: 1.00, B: 1.00}},
	stop{0.770, colorful.Color{R: 0.00, G: 0.00, B: 1.00}},
	stop{0.954, colorful.Color{R: 1.00, G: 0.00, B: 1.00}},
	stop{1.000, colorful.Color{R: 1.00, G: 0.00, B: 0.75}},
)

// Rocket is the sequential map used for heatmap cells: dark for low
// similarity, pale for identical genomes.
var Rocket = gradient(true,
	stop{0.00, hex("#03051a")},
	stop{0.25, hex("#4c1d4b")},
	stop{0.50, hex("#a11a5b")},
	stop{0.75, hex("#e83f3f")},
	stop{1.00, hex("#faebdd")},
)

// Missing is the color of cells without a value.
var Missing = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}

// Scale returns the color for v on m after normalising by [vmin, vmax].
func Scale(m Map, v, vmin, vmax float64) color.RGBA {
	if math.IsNaN(v) {
		return Missing
	}
	if vmax <= vmin {
		return m(1)
	}
	return m((v - vmin) / (vmax - vmin))
}

// ClusterColorMap assigns each genome in names the color of its cluster.
// Every distinct cluster in name2cluster is placed on GistRainbow at
// index/NUM_COLORS, where NUM_COLORS counts the distinct clusters of the
// whole assignment, not only those present in names.
func ClusterColorMap(names []string, name2cluster map[string]string) (map[string]color.RGBA, error) {
	cluster2color, err := clusterColors(name2cluster)
	if err != nil {
		return nil, err
	}
	name2color := make(map[string]color.RGBA, len(names))
	for _, name := range names {
		cluster, ok := name2cluster[name]
		if !ok {
			return nil, fmt.Errorf("genome %q has no cluster assignment", name)
		}
		name2color[name] = cluster2color[cluster]
	}
	return name2color, nil
}

// ClusterColors is ClusterColorMap as a list parallel to names.
func ClusterColors(names []string, name2cluster map[string]string) ([]color.RGBA, error) {
	name2color, err := ClusterColorMap(names, name2cluster)
	if err != nil {
		return nil, err
	}
	colors := make([]color.RGBA, len(names))
	for i, name := range names {
		colors[i] = name2color[name]
	}
	return colors, nil
}

func clusterColors(name2cluster map[string]string) (map[string]color.RGBA, error) {
	set := make(map[string]bool)
	for _, cluster := range name2cluster {
		set[cluster] = true
	}
	clusters := make([]string, 0, len(set))
	for cluster := range set {
		clusters = append(clusters, cluster)
	}
	sort.Strings(clusters)

	cluster2color := make(map[string]color.RGBA, len(clusters))
	for _, cluster := range clusters {
		index, err := table.ParseClusterIndex(cluster)
		if err != nil {
			return nil, err
		}
		cluster2color[cluster] = GistRainbow(float64(index) / float64(len(clusters)))
	}
	return cluster2color, nil
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
