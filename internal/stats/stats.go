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

// Package stats summarises paired similarity measurements.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var errTooFewPoints = errors.New("at least three finite points are required")

// Pearson holds a correlation coefficient with its two-sided p-value.
type Pearson struct {
	R, P float64
	N    int
}

func (p Pearson) String() string {
	return fmt.Sprintf("pearsonr = %.2g; p = %.2g", p.R, p.P)
}

// Correlate computes Pearson's r for the finite pairs of x and y.  The p-value
// comes from Student's t with n-2 degrees of freedom.
func Correlate(x, y []float64) (Pearson, error) {
	if len(x) != len(y) {
		return Pearson{}, fmt.Errorf("length mismatch: %d != %d", len(x), len(y))
	}
	xs, ys := Finite(x, y)
	n := len(xs)
	if n < 3 {
		return Pearson{}, errTooFewPoints
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return Pearson{}, errors.New("correlation undefined for constant input")
	}

	p := 0.0
	if math.Abs(r) < 1 {
		dof := float64(n - 2)
		t := r * math.Sqrt(dof/(1-r*r))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
		p = 2 * dist.Survival(math.Abs(t))
	}
	return Pearson{R: r, P: p, N: n}, nil
}

// Finite returns the pairs of x and y where both values are finite.
func Finite(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Summary describes a set of within- or between-cluster similarities.
type Summary struct {
	Mean, Min, Max float64
	N              int
}

// Summarize returns the mean and range of the finite values.
func Summarize(values []float64) Summary {
	finite, _ := Finite(values, values)
	if len(finite) == 0 {
		return Summary{Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	s := Summary{Mean: stat.Mean(finite, nil), Min: finite[0], Max: finite[0], N: len(finite)}
	for _, v := range finite[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}
