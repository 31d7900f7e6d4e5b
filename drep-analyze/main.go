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

// This binary draws the figures of a dereplication work directory, either on
// local disk or in GCS.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/pkg/profile"

	"github.com/googlegenomics/drepviz/analyze"
	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/workdir"
)

var (
	wd     = flag.String("wd", "", "work directory, a local path or gs://bucket/path")
	format = flag.String("format", "svg", "figure format (svg or png)")

	clusterVisualization = flag.Bool("cluster_visualization", true, "draw the dendrograms and clustered heatmaps")
	heatmaps             = flag.Bool("heatmaps", false, "draw plain MASH, ANIn and alignment coverage heatmaps")
	scatterplots         = flag.Bool("scatterplots", false, "draw scatterplots comparing the similarity metrics")
	tightness            = flag.Bool("tightness", false, "draw the within and between cluster identity of each MASH cluster")

	parallel   = flag.Int("parallel", 4, "number of figures rendered at once")
	cpuProfile = flag.Bool("profile", false, "write a CPU profile to the working directory")
)

func main() {
	flag.Parse()

	if *wd == "" {
		log.Fatalf("You must specify a work directory with -wd.")
	}
	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	f, err := figure.ParseFormat(*format)
	if err != nil {
		log.Fatalf("Invalid -format: %v", err)
	}

	ctx := context.Background()
	dir, err := workdir.Open(ctx, *wd, workdir.NewDefaultClient)
	if err != nil {
		log.Fatalf("Failed to open work directory: %v", err)
	}

	names, err := analyze.Analyze(ctx, dir, analyze.Options{
		Format:               f,
		ClusterVisualization: *clusterVisualization,
		Heatmaps:             *heatmaps,
		Scatterplots:         *scatterplots,
		Tightness:            *tightness,
		Parallel:             *parallel,
	})
	if err != nil {
		log.Fatalf("Failed to analyze %s: %v", *wd, err)
	}
	for _, name := range names {
		log.Printf("Wrote %s%s", workdir.FiguresDir, name)
	}
}
