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

package linkage

// Leaf spacing in layout coordinates.  Leaf k of the drawing order sits at
// x = LeafSpacing/2 + k*LeafSpacing.
const LeafSpacing = 10

// Link is the U-shaped connector drawn for one merge: it rises from the left
// child at (X[0], Y[0]) to the merge height, crosses, and descends to the
// right child at (X[3], Y[3]).
type Link struct {
	X, Y [4]float64
}

// Layout is a dendrogram ready to be scaled onto a canvas.
type Layout struct {
	// Order holds the leaf indices in drawing order.
	Order []int
	// Links holds one connector per merge, in merge order.
	Links []Link
	// Width is the extent of the x axis; Height is the root distance.
	Width, Height float64
}

// Layout computes the dendrogram geometry of l.
func (l *Linkage) Layout() *Layout {
	n := l.Leaves()
	order := l.Order()

	x := make([]float64, 2*n-1)
	y := make([]float64, 2*n-1)
	for k, leaf := range order {
		x[leaf] = LeafSpacing/2 + float64(k)*LeafSpacing
	}

	links := make([]Link, len(l.Merges))
	// Merges only reference earlier nodes, so one pass in merge order sees
	// every child positioned.
	for i, m := range l.Merges {
		node := n + i
		x[node] = (x[m.Left] + x[m.Right]) / 2
		y[node] = m.Distance
		links[i] = Link{
			X: [4]float64{x[m.Left], x[m.Left], x[m.Right], x[m.Right]},
			Y: [4]float64{y[m.Left], m.Distance, m.Distance, y[m.Right]},
		}
	}

	return &Layout{
		Order:  order,
		Links:  links,
		Width:  float64(n) * LeafSpacing,
		Height: l.MaxDistance(),
	}
}

// Labels returns names in drawing order.
func (lay *Layout) Labels(names []string) []string {
	labels := make([]string, len(lay.Order))
	for k, leaf := range lay.Order {
		labels[k] = names[leaf]
	}
	return labels
}
