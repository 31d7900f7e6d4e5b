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

// Package table provides the pairwise comparison and cluster assignment tables
// produced by the dereplication pipeline, and the reshaping operations needed
// to plot them.
package table

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var errEmptyTable = errors.New("empty table")

// MashPair is a single row of the MASH comparison table (Mdb).
type MashPair struct {
	Genome1, Genome2 string
	Similarity       float64
}

// Mdb holds all MASH comparisons.
type Mdb []MashPair

// ANInPair is a single row of the ANIn comparison table (Ndb).
type ANInPair struct {
	Reference, Querry string
	ANI               float64
	AlignmentCoverage float64
	MashCluster       int
}

// Ndb holds all ANIn comparisons.
type Ndb []ANInPair

// Assignment is a single row of the cluster assignment table (Cdb).
type Assignment struct {
	Genome      string
	MashCluster int
	ANInCluster string
}

// Cdb holds the cluster assignment of every genome.
type Cdb []Assignment

// GenomeInfo is a single row of the genome information table (Gdb).
type GenomeInfo struct {
	Genome string
	Length float64
}

// Gdb holds per-genome information.
type Gdb []GenomeInfo

// ReadMdb parses a MASH comparison table.
func ReadMdb(r io.Reader) (Mdb, error) {
	in, err := newReader(r, "genome1", "genome2", "similarity")
	if err != nil {
		return nil, err
	}
	var db Mdb
	for {
		rec, err := in.next()
		if err == io.EOF {
			return db, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading Mdb: %v", err)
		}
		var row MashPair
		if row.Genome1, err = rec.str("genome1"); err != nil {
			return nil, err
		}
		if row.Genome2, err = rec.str("genome2"); err != nil {
			return nil, err
		}
		if row.Similarity, err = rec.float("similarity"); err != nil {
			return nil, err
		}
		db = append(db, row)
	}
}

// ReadNdb parses an ANIn comparison table.
func ReadNdb(r io.Reader) (Ndb, error) {
	in, err := newReader(r, "reference", "querry", "ani", "alignment_coverage", "MASH_cluster")
	if err != nil {
		return nil, err
	}
	var db Ndb
	for {
		rec, err := in.next()
		if err == io.EOF {
			return db, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading Ndb: %v", err)
		}
		var row ANInPair
		if row.Reference, err = rec.str("reference"); err != nil {
			return nil, err
		}
		if row.Querry, err = rec.str("querry"); err != nil {
			return nil, err
		}
		if row.ANI, err = rec.float("ani"); err != nil {
			return nil, err
		}
		if row.AlignmentCoverage, err = rec.float("alignment_coverage"); err != nil {
			return nil, err
		}
		if row.MashCluster, err = rec.int("MASH_cluster"); err != nil {
			return nil, err
		}
		db = append(db, row)
	}
}

// ReadCdb parses a cluster assignment table.
func ReadCdb(r io.Reader) (Cdb, error) {
	in, err := newReader(r, "genome", "MASH_cluster", "ANIn_cluster")
	if err != nil {
		return nil, err
	}
	var db Cdb
	for {
		rec, err := in.next()
		if err == io.EOF {
			return db, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading Cdb: %v", err)
		}
		var row Assignment
		if row.Genome, err = rec.str("genome"); err != nil {
			return nil, err
		}
		if row.MashCluster, err = rec.int("MASH_cluster"); err != nil {
			return nil, err
		}
		if row.ANInCluster, err = rec.str("ANIn_cluster"); err != nil {
			return nil, err
		}
		db = append(db, row)
	}
}

// ReadGdb parses a genome information table.
func ReadGdb(r io.Reader) (Gdb, error) {
	in, err := newReader(r, "genome", "length")
	if err != nil {
		return nil, err
	}
	var db Gdb
	for {
		rec, err := in.next()
		if err == io.EOF {
			return db, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading Gdb: %v", err)
		}
		var row GenomeInfo
		if row.Genome, err = rec.str("genome"); err != nil {
			return nil, err
		}
		if row.Length, err = rec.float("length"); err != nil {
			return nil, err
		}
		db = append(db, row)
	}
}

// Pivot reshapes the table into a genome1 × genome2 similarity matrix.
func (db Mdb) Pivot() (*Matrix, error) {
	return pivot(len(db), func(i int) (string, string, float64) {
		return db[i].Genome1, db[i].Genome2, db[i].Similarity
	})
}

// Value selects a numeric column of Ndb.
type Value int

const (
	ANI Value = iota
	AlignmentCoverage
)

func (v Value) String() string {
	switch v {
	case ANI:
		return "ani"
	case AlignmentCoverage:
		return "alignment_coverage"
	}
	return "Value(" + strconv.Itoa(int(v)) + ")"
}

func (p ANInPair) value(v Value) float64 {
	if v == AlignmentCoverage {
		return p.AlignmentCoverage
	}
	return p.ANI
}

// Pivot reshapes the table into a reference × querry matrix of v.
func (db Ndb) Pivot(v Value) (*Matrix, error) {
	return pivot(len(db), func(i int) (string, string, float64) {
		return db[i].Reference, db[i].Querry, db[i].value(v)
	})
}

// MashClusters returns the distinct MASH clusters in order of first
// appearance.
func (db Ndb) MashClusters() []int {
	seen := make(map[int]bool)
	var clusters []int
	for _, row := range db {
		if !seen[row.MashCluster] {
			seen[row.MashCluster] = true
			clusters = append(clusters, row.MashCluster)
		}
	}
	return clusters
}

// ForCluster returns the rows belonging to a MASH cluster.
func (db Ndb) ForCluster(cluster int) Ndb {
	var out Ndb
	for _, row := range db {
		if row.MashCluster == cluster {
			out = append(out, row)
		}
	}
	return out
}

// ForGenomes returns the rows whose reference genome is in genomes.
func (db Ndb) ForGenomes(genomes []string) Ndb {
	keep := make(map[string]bool, len(genomes))
	for _, g := range genomes {
		keep[g] = true
	}
	var out Ndb
	for _, row := range db {
		if keep[row.Reference] {
			out = append(out, row)
		}
	}
	return out
}

// References returns the distinct reference genomes, sorted.
func (db Ndb) References() []string {
	set := make(map[string]bool)
	for _, row := range db {
		set[row.Reference] = true
	}
	return sortedKeys(set)
}

// MashClusterOf maps each genome to its MASH cluster, formatted as a label.
func (db Cdb) MashClusterOf() map[string]string {
	m := make(map[string]string, len(db))
	for _, row := range db {
		m[row.Genome] = strconv.Itoa(row.MashCluster)
	}
	return m
}

// ANInClusterOf maps each genome to its ANIn cluster.
func (db Cdb) ANInClusterOf() map[string]string {
	m := make(map[string]string, len(db))
	for _, row := range db {
		m[row.Genome] = row.ANInCluster
	}
	return m
}

// GenomesIn returns the genomes assigned to a MASH cluster, in table order.
func (db Cdb) GenomesIn(mashCluster int) []string {
	var genomes []string
	for _, row := range db {
		if row.MashCluster == mashCluster {
			genomes = append(genomes, row.Genome)
		}
	}
	return genomes
}

// Lengths maps each genome to its length.
func (db Gdb) Lengths() map[string]float64 {
	m := make(map[string]float64, len(db))
	for _, row := range db {
		m[row.Genome] = row.Length
	}
	return m
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseClusterIndex returns the integer used to place a cluster on a color
// map: the label itself when it is an integer, otherwise the integer after
// the first underscore ("3_1" yields 1).
func ParseClusterIndex(cluster string) (int, error) {
	if n, err := strconv.Atoi(cluster); err == nil {
		return n, nil
	}
	parts := strings.Split(cluster, "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid cluster label %q", cluster)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid cluster label %q: %v", cluster, err)
	}
	return n, nil
}
