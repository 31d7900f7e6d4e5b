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
	"image/color"
	"sort"

	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/internal/palette"
	"github.com/googlegenomics/drepviz/internal/stats"
	"github.com/googlegenomics/drepviz/internal/table"
)

var betweenColor = color.RGBA{0x80, 0x80, 0x80, 0xff}

// Tightness compares the ANIn identity of genomes sharing an ANIn cluster
// with that of genomes in different ANIn clusters of the same MASH cluster.
// Self comparisons are not counted.
type Tightness struct {
	MashCluster int
	Within      map[string]stats.Summary
	Between     stats.Summary
}

// Pairs returns the number of comparisons summarized by t.
func (t Tightness) Pairs() int {
	n := t.Between.N
	for _, s := range t.Within {
		n += s.N
	}
	return n
}

// ClusterTightness summarizes every MASH cluster of ndb.
func ClusterTightness(ndb table.Ndb, cdb table.Cdb) ([]Tightness, error) {
	name2cluster := cdb.ANInClusterOf()

	var result []Tightness
	for _, cluster := range ndb.MashClusters() {
		within := make(map[string][]float64)
		var between []float64
		for _, row := range ndb.ForCluster(cluster) {
			if row.Reference == row.Querry {
				continue
			}
			a, ok := name2cluster[row.Reference]
			if !ok {
				return nil, fmt.Errorf("genome %q has no cluster assignment", row.Reference)
			}
			b, ok := name2cluster[row.Querry]
			if !ok {
				return nil, fmt.Errorf("genome %q has no cluster assignment", row.Querry)
			}
			if a == b {
				within[a] = append(within[a], row.ANI)
			} else {
				between = append(between, row.ANI)
			}
		}

		t := Tightness{
			MashCluster: cluster,
			Within:      make(map[string]stats.Summary),
			Between:     stats.Summarize(between),
		}
		for _, row := range cdb {
			if row.MashCluster == cluster {
				t.Within[row.ANInCluster] = stats.Summarize(within[row.ANInCluster])
			}
		}
		result = append(result, t)
	}
	return result, nil
}

// Bars draws the mean within-cluster identity of each ANIn cluster in its
// cluster color, followed by the lowest within-cluster identity and the mean
// between-cluster identity.
func (t Tightness) Bars(name2cluster map[string]string) (*figure.Bars, error) {
	clusters := make([]string, 0, len(t.Within))
	for cluster := range t.Within {
		clusters = append(clusters, cluster)
	}
	sort.Strings(clusters)

	// Colors follow the cluster assignment of the whole work directory.
	cluster2genome := make(map[string]string)
	for genome, cluster := range name2cluster {
		cluster2genome[cluster] = genome
	}
	var genomes []string
	for _, cluster := range clusters {
		genome, ok := cluster2genome[cluster]
		if !ok {
			return nil, fmt.Errorf("cluster %q has no genomes", cluster)
		}
		genomes = append(genomes, genome)
	}
	colors, err := palette.ClusterColors(genomes, name2cluster)
	if err != nil {
		return nil, err
	}

	b := &figure.Bars{
		Title: fmt.Sprintf("Tightness of MASH cluster %d", t.MashCluster),
		YName: "ANIn",
	}
	var within []float64
	for i, cluster := range clusters {
		s := t.Within[cluster]
		b.Bars = append(b.Bars, figure.Bar{Label: cluster, Value: s.Mean, Color: colors[i]})
		if s.N > 0 {
			within = append(within, s.Min)
		}
	}
	b.Bars = append(b.Bars,
		figure.Bar{Label: "within (min)", Value: stats.Summarize(within).Min, Color: betweenColor},
		figure.Bar{Label: "between", Value: t.Between.Mean, Color: betweenColor},
	)
	return b, nil
}
