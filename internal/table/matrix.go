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

package table

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a labelled similarity matrix.  Pairs absent from the source
// table are NaN.
type Matrix struct {
	Rows, Cols []string
	Values     *mat.Dense
}

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Values.At(i, j)
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (int, int) {
	return len(m.Rows), len(m.Cols)
}

// Lookup returns the value for a named pair.
func (m *Matrix) Lookup(row, col string) (float64, bool) {
	i := sort.SearchStrings(m.Rows, row)
	j := sort.SearchStrings(m.Cols, col)
	if i == len(m.Rows) || m.Rows[i] != row || j == len(m.Cols) || m.Cols[j] != col {
		return math.NaN(), false
	}
	return m.Values.At(i, j), true
}

// Reorder returns a copy of m with rows and columns permuted.  Each order
// holds indices into the current rows or columns.
func (m *Matrix) Reorder(rowOrder, colOrder []int) (*Matrix, error) {
	if len(rowOrder) != len(m.Rows) || len(colOrder) != len(m.Cols) {
		return nil, fmt.Errorf("order of %dx%d does not match matrix of %dx%d",
			len(rowOrder), len(colOrder), len(m.Rows), len(m.Cols))
	}
	out := &Matrix{
		Rows:   make([]string, len(rowOrder)),
		Cols:   make([]string, len(colOrder)),
		Values: mat.NewDense(len(rowOrder), len(colOrder), nil),
	}
	for i, ri := range rowOrder {
		out.Rows[i] = m.Rows[ri]
		for j, cj := range colOrder {
			out.Values.Set(i, j, m.Values.At(ri, cj))
		}
	}
	for j, cj := range colOrder {
		out.Cols[j] = m.Cols[cj]
	}
	return out, nil
}

// pivot builds a matrix from n (row, column, value) triples.  Row and column
// labels are sorted.  A pair given twice is an error.
func pivot(n int, triple func(i int) (string, string, float64)) (*Matrix, error) {
	if n == 0 {
		return nil, errEmptyTable
	}
	rowSet, colSet := make(map[string]bool), make(map[string]bool)
	for i := 0; i < n; i++ {
		row, col, _ := triple(i)
		rowSet[row] = true
		colSet[col] = true
	}
	rows, cols := sortedKeys(rowSet), sortedKeys(colSet)
	rowIndex, colIndex := indexOf(rows), indexOf(cols)

	data := make([]float64, len(rows)*len(cols))
	for i := range data {
		data[i] = math.NaN()
	}
	seen := make([]bool, len(data))
	for i := 0; i < n; i++ {
		row, col, v := triple(i)
		k := rowIndex[row]*len(cols) + colIndex[col]
		if seen[k] {
			return nil, fmt.Errorf("duplicate entry for pair (%s, %s)", row, col)
		}
		seen[k] = true
		data[k] = v
	}
	return &Matrix{Rows: rows, Cols: cols, Values: mat.NewDense(len(rows), len(cols), data)}, nil
}

func indexOf(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, name := range names {
		m[name] = i
	}
	return m
}
