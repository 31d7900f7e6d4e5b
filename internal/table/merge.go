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
)

// Comparison joins the MASH and ANIn results for one ordered genome pair.
type Comparison struct {
	Querry, Reference string
	MashANI           float64
	ANIn              float64
	ANInCoverage      float64
}

type pairKey struct{ querry, reference string }

// MergeMashANIn inner-joins Mdb and Ndb on (querry, reference), where Mdb's
// genome1 is the querry and genome2 the reference.  When excludeZero is set,
// pairs MASH found no similarity for are dropped before joining.  The result
// follows Mdb order.
func MergeMashANIn(mdb Mdb, ndb Ndb, excludeZero bool) []Comparison {
	anin := make(map[pairKey]ANInPair, len(ndb))
	for _, row := range ndb {
		anin[pairKey{row.Querry, row.Reference}] = row
	}

	var out []Comparison
	for _, row := range mdb {
		if excludeZero && !(row.Similarity > 0) {
			continue
		}
		n, ok := anin[pairKey{row.Genome1, row.Genome2}]
		if !ok {
			continue
		}
		out = append(out, Comparison{
			Querry:       row.Genome1,
			Reference:    row.Genome2,
			MashANI:      row.Similarity,
			ANIn:         n.ANI,
			ANInCoverage: n.AlignmentCoverage,
		})
	}
	return out
}

// LengthDifference returns the absolute length difference of two genomes.
func LengthDifference(lengths map[string]float64, a, b string) (float64, error) {
	la, ok := lengths[a]
	if !ok {
		return 0, fmt.Errorf("no length for genome %q", a)
	}
	lb, ok := lengths[b]
	if !ok {
		return 0, fmt.Errorf("no length for genome %q", b)
	}
	return math.Abs(la - lb), nil
}
