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

// Package linkage reads precomputed hierarchical clustering trees and lays
// them out for drawing.
//
// A linkage over n leaves has n-1 merges.  Merge i joins nodes Left and Right
// at Distance, producing node n+i which holds Count leaves.  Leaves are the
// nodes 0..n-1.
package linkage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Merge is one row of a linkage matrix.
type Merge struct {
	Left, Right int
	Distance    float64
	Count       int
}

// Linkage is a hierarchical clustering tree.  Genomes, when set, names the
// leaves in index order.
type Linkage struct {
	Merges  []Merge
	Genomes []string
}

type linkageFile struct {
	Genomes []string     `json:"genomes"`
	Linkage [][4]float64 `json:"linkage"`
}

// Read decodes a linkage written by the clustering step and validates it.
func Read(r io.Reader) (*Linkage, error) {
	var file linkageFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding linkage: %v", err)
	}

	l := &Linkage{Genomes: file.Genomes}
	for i, row := range file.Linkage {
		for _, v := range []float64{row[0], row[1], row[3]} {
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("merge %d: non-integer node index or count %v", i, v)
			}
		}
		l.Merges = append(l.Merges, Merge{
			Left:     int(row[0]),
			Right:    int(row[1]),
			Distance: row[2],
			Count:    int(row[3]),
		})
	}

	if err := l.Validate(l.Leaves()); err != nil {
		return nil, err
	}
	return l, nil
}

var errEmpty = errors.New("linkage has no merges")

// Leaves returns the number of leaves in the tree.
func (l *Linkage) Leaves() int {
	return len(l.Merges) + 1
}

// Validate checks that l is a well formed tree over n leaves.
func (l *Linkage) Validate(n int) error {
	if len(l.Merges) == 0 {
		return errEmpty
	}
	if got := l.Leaves(); got != n {
		return fmt.Errorf("linkage has %d leaves, want %d", got, n)
	}
	if len(l.Genomes) > 0 && len(l.Genomes) != n {
		return fmt.Errorf("linkage names %d genomes but has %d leaves", len(l.Genomes), n)
	}

	used := make([]bool, 2*n-1)
	counts := make([]int, 2*n-1)
	for i := 0; i < n; i++ {
		counts[i] = 1
	}
	for i, m := range l.Merges {
		node := n + i
		for _, child := range []int{m.Left, m.Right} {
			if child < 0 || child >= node {
				return fmt.Errorf("merge %d: node %d does not exist yet", i, child)
			}
			if used[child] {
				return fmt.Errorf("merge %d: node %d merged twice", i, child)
			}
			used[child] = true
		}
		if m.Left == m.Right {
			return fmt.Errorf("merge %d: node %d merged with itself", i, m.Left)
		}
		if math.IsNaN(m.Distance) || m.Distance < 0 {
			return fmt.Errorf("merge %d: invalid distance %v", i, m.Distance)
		}
		counts[node] = counts[m.Left] + counts[m.Right]
		if m.Count != counts[node] {
			return fmt.Errorf("merge %d: count %d, want %d", i, m.Count, counts[node])
		}
	}
	return nil
}

// Order returns the leaves in the left-to-right order a dendrogram draws
// them, visiting the left child of every merge first.
func (l *Linkage) Order() []int {
	n := l.Leaves()
	order := make([]int, 0, n)
	stack := []int{2*n - 2}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node < n {
			order = append(order, node)
			continue
		}
		m := l.Merges[node-n]
		stack = append(stack, m.Right, m.Left)
	}
	return order
}

// MaxDistance returns the height of the root merge.
func (l *Linkage) MaxDistance() float64 {
	var max float64
	for _, m := range l.Merges {
		if m.Distance > max {
			max = m.Distance
		}
	}
	return max
}
