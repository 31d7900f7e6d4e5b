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

// Package analyze draws the diagnostic figures of a dereplication work
// directory: clustered heatmaps and dendrograms of the MASH and ANIn
// comparisons, scatterplots relating the similarity metrics and summaries of
// cluster tightness.
package analyze

import (
	"context"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/internal/linkage"
	"github.com/googlegenomics/drepviz/internal/table"
	"github.com/googlegenomics/drepviz/workdir"
)

// Figure file names, without extension.
const (
	MashDendrogramName  = "MASH_clustering_dendrogram"
	MashClusterMapName  = "MASH_clustering_heatmap"
	ANInDendrogramName  = "ANIn_Mcluster%d_dendrogram"
	ANInClusterMapName  = "ANIn_Mcluster%d_heatmap"
	MashHeatmapName     = "MASH_ANI_heatmap"
	ANInHeatmapName     = "ANIn_Mcluster%d_ANIn_heatmap"
	CoverageHeatmapName = "ANIn_Mcluster%d_coverage_heatmap"
	MashVsANInName      = "MASH_vs_ANIn"
	MashVsCoverageName  = "MASH_vs_ANIn_coverage"
	ANInVsCoverageName  = "ANIn_vs_ANIn_coverage"
	MashVsLengthName    = "MASH_vs_length"
	ANInVsLengthName    = "ANIn_vs_length"
	TightnessName       = "ANIn_Mcluster%d_tightness"
)

// Renderer is implemented by every figure.
type Renderer interface {
	Render(w io.Writer, format figure.Format) error
}

// Options selects the figures drawn by Analyze.
type Options struct {
	Format figure.Format

	// ClusterVisualization draws the dendrogram and clustered heatmap of the
	// primary clustering and of every secondary clustering.
	ClusterVisualization bool

	// Heatmaps draws the plain MASH, ANIn and alignment coverage heatmaps.
	Heatmaps bool

	// Scatterplots draws the pairwise metric comparisons.
	Scatterplots bool

	// Tightness draws the within and between cluster identity of every MASH
	// cluster.
	Tightness bool

	// Parallel bounds the number of figures rendered at once.  Zero or less
	// means no bound.
	Parallel int
}

// DefaultOptions draws the cluster visualization as SVG.
var DefaultOptions = Options{
	Format:               figure.SVG,
	ClusterVisualization: true,
	Parallel:             4,
}

type output struct {
	name string
	fig  Renderer
}

type inputs struct {
	mdb          table.Mdb
	ndb          table.Ndb
	cdb          table.Cdb
	mashLinkage  *linkage.Linkage
	aninLinkages map[int]*linkage.Linkage
}

// Analyze draws the figures selected by opts into the figures directory of
// wd and returns the names of the files written.  Scatterplots without any
// comparison to show are skipped.  If drawing fails, the names of the
// figures written before the failure are returned with the error.
func Analyze(ctx context.Context, wd *workdir.WorkDirectory, opts Options) ([]string, error) {
	in, err := load(ctx, wd, opts)
	if err != nil {
		return nil, err
	}

	var outputs []output
	if opts.ClusterVisualization {
		args, err := wd.ClusterArguments(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading cluster arguments: %v", err)
		}
		o, err := clusterVisualization(in, args)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o...)
	}
	if opts.Heatmaps {
		o, err := heatmaps(in)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o...)
	}
	if opts.Scatterplots {
		outputs = append(outputs, scatterplots(ctx, wd, in)...)
	}
	if opts.Tightness {
		o, err := tightness(in)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o...)
	}
	return save(ctx, wd, outputs, opts)
}

func load(ctx context.Context, wd *workdir.WorkDirectory, opts Options) (*inputs, error) {
	var in inputs
	var err error
	if in.mdb, err = wd.Mdb(ctx); err != nil {
		return nil, fmt.Errorf("loading Mdb: %v", err)
	}
	if in.ndb, err = wd.Ndb(ctx); err != nil {
		return nil, fmt.Errorf("loading Ndb: %v", err)
	}
	if in.cdb, err = wd.Cdb(ctx); err != nil {
		return nil, fmt.Errorf("loading Cdb: %v", err)
	}
	if !opts.ClusterVisualization && !opts.Heatmaps {
		return &in, nil
	}

	in.mashLinkage, err = wd.MashLinkage(ctx)
	if err == workdir.ErrNotExist && !opts.ClusterVisualization {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading MASH linkage: %v", err)
	}
	if in.aninLinkages, err = wd.ANInLinkages(ctx); err != nil {
		return nil, fmt.Errorf("loading ANIn linkages: %v", err)
	}
	return &in, nil
}

func clusterVisualization(in *inputs, args workdir.ClusterArguments) ([]output, error) {
	mash, err := MashClusters(in.mdb, in.cdb, in.mashLinkage, args.MashThreshold)
	if err != nil {
		return nil, err
	}
	outputs := []output{
		{MashDendrogramName, mash.Dendrogram},
		{MashClusterMapName, mash.Heatmap},
	}

	anin, err := ANInClusters(in.ndb, in.cdb, in.aninLinkages, args.ANInThreshold)
	if err != nil {
		return nil, err
	}
	for _, cluster := range clusterKeys(anin) {
		outputs = append(outputs,
			output{fmt.Sprintf(ANInDendrogramName, cluster), anin[cluster].Dendrogram},
			output{fmt.Sprintf(ANInClusterMapName, cluster), anin[cluster].Heatmap},
		)
	}
	return outputs, nil
}

func heatmaps(in *inputs) ([]output, error) {
	mash, err := MashHeatmap(in.mdb, in.mashLinkage)
	if err != nil {
		return nil, err
	}
	outputs := []output{{MashHeatmapName, mash}}

	anin, err := ANInHeatmaps(in.ndb, in.aninLinkages)
	if err != nil {
		return nil, err
	}
	coverage, err := ANInCoverageHeatmaps(in.ndb, in.aninLinkages)
	if err != nil {
		return nil, err
	}
	for _, cluster := range clusterKeys(anin) {
		outputs = append(outputs,
			output{fmt.Sprintf(ANInHeatmapName, cluster), anin[cluster]},
			output{fmt.Sprintf(CoverageHeatmapName, cluster), coverage[cluster]},
		)
	}
	return outputs, nil
}

func scatterplots(ctx context.Context, wd *workdir.WorkDirectory, in *inputs) []output {
	var outputs []output
	add := func(name string, s *figure.Scatter) {
		if s.Points() == 0 {
			log.Printf("No comparisons to plot in %s, skipping", name)
			return
		}
		outputs = append(outputs, output{name, s})
	}
	add(MashVsANInName, MashVsANIn(in.mdb, in.ndb, true))
	add(MashVsCoverageName, MashVsCoverage(in.mdb, in.ndb, true))
	add(ANInVsCoverageName, ANInVsCoverage(in.ndb))

	gdb, err := wd.Gdb(ctx)
	if err != nil {
		log.Printf("Failed to load genome lengths, skipping length scatterplots: %v", err)
		return outputs
	}
	if s, err := MashVsLength(in.mdb, gdb); err != nil {
		log.Printf("Failed to plot MASH against length: %v", err)
	} else {
		add(MashVsLengthName, s)
	}
	if s, err := ANInVsLength(in.ndb, gdb); err != nil {
		log.Printf("Failed to plot ANIn against length: %v", err)
	} else {
		add(ANInVsLengthName, s)
	}
	return outputs
}

func tightness(in *inputs) ([]output, error) {
	summaries, err := ClusterTightness(in.ndb, in.cdb)
	if err != nil {
		return nil, fmt.Errorf("measuring cluster tightness: %v", err)
	}
	name2cluster := in.cdb.ANInClusterOf()

	var outputs []output
	for _, t := range summaries {
		if t.Pairs() == 0 {
			continue
		}
		bars, err := t.Bars(name2cluster)
		if err != nil {
			return nil, fmt.Errorf("MASH cluster %d: %v", t.MashCluster, err)
		}
		outputs = append(outputs, output{fmt.Sprintf(TightnessName, t.MashCluster), bars})
	}
	return outputs, nil
}

// save renders every output into the figures directory.  When a render
// fails, the figures already written are left in place and their names are
// returned along with the error.
func save(ctx context.Context, wd *workdir.WorkDirectory, outputs []output, opts Options) ([]string, error) {
	names := make([]string, len(outputs))
	for i, o := range outputs {
		names[i] = o.name + "." + opts.Format.Extension()
	}

	written := make([]bool, len(outputs))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for i := range outputs {
		i, fig, name := i, outputs[i].fig, names[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := saveFigure(ctx, wd, name, fig, opts.Format); err != nil {
				return err
			}
			written[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var done []string
		for i, ok := range written {
			if ok {
				done = append(done, names[i])
			}
		}
		return done, err
	}
	return names, nil
}

func saveFigure(ctx context.Context, wd *workdir.WorkDirectory, name string, fig Renderer, format figure.Format) error {
	w, err := wd.CreateFigure(ctx, name)
	if err != nil {
		return fmt.Errorf("creating %s: %v", name, err)
	}
	if err := fig.Render(w, format); err != nil {
		w.Close()
		return fmt.Errorf("rendering %s: %v", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s: %v", name, err)
	}
	return nil
}
