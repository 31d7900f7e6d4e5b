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
	"fmt"
	"sort"

	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/internal/linkage"
	"github.com/googlegenomics/drepviz/internal/table"
)

// MashHeatmap plots every MASH comparison.  The rows and columns follow l
// when it covers exactly the genomes of the table, and sorted order
// otherwise.
func MashHeatmap(mdb table.Mdb, l *linkage.Linkage) (*figure.Heatmap, error) {
	m, err := mdb.Pivot()
	if err != nil {
		return nil, fmt.Errorf("pivoting Mdb: %v", err)
	}
	return &figure.Heatmap{
		Title:   "MASH ANI",
		Matrix:  m,
		Linkage: matchingLinkage(m, l),
	}, nil
}

// ANInHeatmaps plots the ANIn identity of every MASH cluster with more than
// one reference genome, keyed by MASH cluster.
func ANInHeatmaps(ndb table.Ndb, linkages map[int]*linkage.Linkage) (map[int]*figure.Heatmap, error) {
	return aninHeatmaps(ndb, linkages, table.ANI, "MASH cluster %d - ANIn")
}

// ANInCoverageHeatmaps is ANInHeatmaps for the alignment coverage.
func ANInCoverageHeatmaps(ndb table.Ndb, linkages map[int]*linkage.Linkage) (map[int]*figure.Heatmap, error) {
	return aninHeatmaps(ndb, linkages, table.AlignmentCoverage, "MASH cluster %d - Alignment Coverage")
}

func aninHeatmaps(ndb table.Ndb, linkages map[int]*linkage.Linkage, v table.Value, title string) (map[int]*figure.Heatmap, error) {
	heatmaps := make(map[int]*figure.Heatmap)
	for _, cluster := range ndb.MashClusters() {
		db := ndb.ForCluster(cluster)
		if len(db.References()) == 1 {
			continue
		}
		m, err := db.Pivot(v)
		if err != nil {
			return nil, fmt.Errorf("pivoting %v of MASH cluster %d: %v", v, cluster, err)
		}
		heatmaps[cluster] = &figure.Heatmap{
			Title:   fmt.Sprintf(title, cluster),
			Matrix:  m,
			Linkage: matchingLinkage(m, linkages[cluster]),
		}
	}
	return heatmaps, nil
}

// matchingLinkage returns l if it can order m, and nil otherwise.
func matchingLinkage(m *table.Matrix, l *linkage.Linkage) *linkage.Linkage {
	if l == nil || len(m.Rows) != len(m.Cols) || l.Validate(len(m.Rows)) != nil {
		return nil
	}
	names := l.Genomes
	if len(names) == 0 {
		return nil
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for i := range sorted {
		if sorted[i] != m.Rows[i] || sorted[i] != m.Cols[i] {
			return nil
		}
	}
	return l
}

// clusterKeys returns the MASH clusters of a per-cluster map in increasing
// order.
func clusterKeys[T any](m map[int]T) []int {
	clusters := make([]int, 0, len(m))
	for cluster := range m {
		clusters = append(clusters, cluster)
	}
	sort.Ints(clusters)
	return clusters
}
