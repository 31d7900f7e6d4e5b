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
	"errors"
	"fmt"

	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/internal/linkage"
	"github.com/googlegenomics/drepviz/internal/palette"
	"github.com/googlegenomics/drepviz/internal/table"
)

var errNoLinkage = errors.New("no linkage")

// ClusterFigures is the dendrogram and clustered heatmap of one clustering.
type ClusterFigures struct {
	Dendrogram *figure.Dendrogram
	Heatmap    *figure.Heatmap
}

// MashClusters draws the primary clustering with every genome colored by
// its MASH cluster.  A positive threshold is marked on the dendrogram.
func MashClusters(mdb table.Mdb, cdb table.Cdb, l *linkage.Linkage, threshold float64) (*ClusterFigures, error) {
	m, err := mdb.Pivot()
	if err != nil {
		return nil, fmt.Errorf("pivoting Mdb: %v", err)
	}
	f, err := clusterFigures(m, l, cdb.MashClusterOf())
	if err != nil {
		return nil, fmt.Errorf("MASH clustering: %v", err)
	}

	f.Dendrogram.Title = "MASH clustering"
	f.Dendrogram.YLabel = "distance (about 1 - MASH_ANI)"
	f.Dendrogram.Threshold = threshold
	f.Dendrogram.YMax = 1

	f.Heatmap.Title = "MASH clustering"
	f.Heatmap.VMin, f.Heatmap.VMax = 0.8, 1
	return f, nil
}

// ANInClusters draws the secondary clustering of every MASH cluster that has
// a linkage, with genomes colored by their ANIn cluster.  The result is keyed
// by MASH cluster.
func ANInClusters(ndb table.Ndb, cdb table.Cdb, linkages map[int]*linkage.Linkage, threshold float64) (map[int]*ClusterFigures, error) {
	name2cluster := cdb.ANInClusterOf()
	figures := make(map[int]*ClusterFigures, len(linkages))
	for _, cluster := range clusterKeys(linkages) {
		db := ndb.ForGenomes(cdb.GenomesIn(cluster))
		m, err := db.Pivot(table.ANI)
		if err != nil {
			return nil, fmt.Errorf("pivoting ANIn of MASH cluster %d: %v", cluster, err)
		}
		f, err := clusterFigures(m, linkages[cluster], name2cluster)
		if err != nil {
			return nil, fmt.Errorf("MASH cluster %d: %v", cluster, err)
		}

		title := fmt.Sprintf("ANI of MASH cluster %d", cluster)
		f.Dendrogram.Title = title
		f.Dendrogram.YLabel = "distance (about 1 - ANIn)"
		f.Dendrogram.Threshold = threshold
		f.Dendrogram.YMax = 0.1

		f.Heatmap.Title = title
		f.Heatmap.VMin, f.Heatmap.VMax = 0.9, 1
		figures[cluster] = f
	}
	return figures, nil
}

// clusterFigures pairs a dendrogram of l with a heatmap of m ordered by l.
// Leaves are named by the linkage's genomes, or by the matrix columns when
// the linkage does not carry them.
func clusterFigures(m *table.Matrix, l *linkage.Linkage, name2cluster map[string]string) (*ClusterFigures, error) {
	if l == nil {
		return nil, errNoLinkage
	}
	names := l.Genomes
	if len(names) == 0 {
		names = m.Cols
	} else if matchingLinkage(m, l) == nil {
		return nil, fmt.Errorf("linkage genomes do not match the %d compared genomes", len(m.Cols))
	}
	if err := l.Validate(len(names)); err != nil {
		return nil, err
	}
	colors, err := palette.ClusterColorMap(names, name2cluster)
	if err != nil {
		return nil, err
	}
	return &ClusterFigures{
		Dendrogram: &figure.Dendrogram{Linkage: l, Names: names, Colors: colors},
		Heatmap:    &figure.Heatmap{Matrix: m, Linkage: l, Colors: colors},
	}, nil
}
