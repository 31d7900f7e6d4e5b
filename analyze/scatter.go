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

package analyze

import (
	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/internal/table"
)

const lengthDifference = "length difference"

// MashVsANIn plots the MASH estimate of each pair against its ANIn identity.
// Pairs MASH found no similarity for are left out when excludeZero is set.
func MashVsANIn(mdb table.Mdb, ndb table.Ndb, excludeZero bool) *figure.Scatter {
	s := &figure.Scatter{XName: "ANIn", YName: "MASH_ANI"}
	for _, c := range table.MergeMashANIn(mdb, ndb, excludeZero) {
		s.X = append(s.X, c.ANIn)
		s.Y = append(s.Y, c.MashANI)
	}
	return s
}

// MashVsCoverage plots the MASH estimate of each pair against its ANIn
// alignment coverage.
func MashVsCoverage(mdb table.Mdb, ndb table.Ndb, excludeZero bool) *figure.Scatter {
	s := &figure.Scatter{XName: "ANIn_cov", YName: "MASH_ANI"}
	for _, c := range table.MergeMashANIn(mdb, ndb, excludeZero) {
		s.X = append(s.X, c.ANInCoverage)
		s.Y = append(s.Y, c.MashANI)
	}
	return s
}

// ANInVsCoverage plots the ANIn identity of each pair against its alignment
// coverage.
func ANInVsCoverage(ndb table.Ndb) *figure.Scatter {
	s := &figure.Scatter{XName: "ANIn_cov", YName: "ANIn"}
	for _, row := range ndb {
		s.X = append(s.X, row.AlignmentCoverage)
		s.Y = append(s.Y, row.ANI)
	}
	return s
}

// MashVsLength plots the MASH estimate of each pair of distinct genomes
// against the difference of their lengths.
func MashVsLength(mdb table.Mdb, gdb table.Gdb) (*figure.Scatter, error) {
	lengths := gdb.Lengths()
	s := &figure.Scatter{XName: lengthDifference, YName: "MASH_ANI"}
	for _, row := range mdb {
		if row.Genome1 == row.Genome2 {
			continue
		}
		d, err := table.LengthDifference(lengths, row.Genome1, row.Genome2)
		if err != nil {
			return nil, err
		}
		s.X = append(s.X, d)
		s.Y = append(s.Y, row.Similarity)
	}
	return s, nil
}

// ANInVsLength plots the ANIn identity of each pair of distinct genomes
// against the difference of their lengths.
func ANInVsLength(ndb table.Ndb, gdb table.Gdb) (*figure.Scatter, error) {
	lengths := gdb.Lengths()
	s := &figure.Scatter{XName: lengthDifference, YName: "ANIn"}
	for _, row := range ndb {
		if row.Reference == row.Querry {
			continue
		}
		d, err := table.LengthDifference(lengths, row.Reference, row.Querry)
		if err != nil {
			return nil, err
		}
		s.X = append(s.X, d)
		s.Y = append(s.Y, row.ANI)
	}
	return s, nil
}
