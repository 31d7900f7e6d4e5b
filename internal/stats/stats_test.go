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

package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelatePerfect(t *testing.T) {
	p, err := Correlate([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.NoError(t, err)
	assert.InDelta(t, 1, p.R, 1e-12)
	assert.Equal(t, 0.0, p.P)
	assert.Equal(t, 4, p.N)
}

func TestCorrelateKnownValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 1, 4, 3, 5}
	p, err := Correlate(x, y)
	require.NoError(t, err)
	// r = 0.8; t = 0.8*sqrt(3/0.36) = 2.3094, p (two-sided, 3 dof) = 0.1041.
	assert.InDelta(t, 0.8, p.R, 1e-12)
	assert.InDelta(t, 0.1041, p.P, 1e-3)
	assert.Equal(t, "pearsonr = 0.8; p = 0.1", p.String())
}

func TestCorrelateSkipsNaN(t *testing.T) {
	p, err := Correlate([]float64{1, math.NaN(), 2, 3}, []float64{1, 5, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, p.N)
}

func TestCorrelateErrors(t *testing.T) {
	testCases := []struct {
		name string
		x, y []float64
	}{
		{"mismatch", []float64{1, 2, 3}, []float64{1, 2}},
		{"too few", []float64{1, 2}, []float64{1, 2}},
		{"constant", []float64{1, 1, 1}, []float64{1, 2, 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Correlate(tc.x, tc.y); err == nil {
				t.Errorf("Correlate(%v, %v) succeeded, want error", tc.x, tc.y)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.9, math.NaN(), 1.0, 0.95})
	assert.InDelta(t, 0.95, s.Mean, 1e-12)
	assert.Equal(t, 0.9, s.Min)
	assert.Equal(t, 1.0, s.Max)
	assert.Equal(t, 3, s.N)

	assert.True(t, math.IsNaN(Summarize(nil).Mean))
}
