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

// Package workdir provides access to the tables, linkages and figures kept in
// a dereplication work directory, either on local disk or in Google Cloud
// Storage.
//
// The layout read by this package is:
//
//	data_tables/Mdb.csv                          MASH comparisons
//	data_tables/Ndb.csv                          ANIn comparisons
//	data_tables/Cdb.csv                          cluster assignments
//	data_tables/Gdb.csv                          genome lengths (optional)
//	data/Clustering_files/MASH_linkage.json      primary linkage
//	data/Clustering_files/ANIn_linkage_cluster_<N>.json
//	log/cluster_arguments.yaml                   clustering arguments (optional)
//	figures/                                     output
package workdir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/googlegenomics/drepviz/internal/linkage"
	"github.com/googlegenomics/drepviz/internal/table"
)

const (
	TablesDir     = "data_tables/"
	ClusteringDir = "data/Clustering_files/"
	FiguresDir    = "figures/"
	ArgumentsFile = "log/cluster_arguments.yaml"

	mashLinkageFile   = ClusteringDir + "MASH_linkage.json"
	aninLinkagePrefix = ClusteringDir + "ANIn_linkage_cluster_"
	linkageSuffix     = ".json"
)

// ErrInvalidName is returned for figure names that would escape the figures
// directory.
var ErrInvalidName = errors.New("invalid figure name")

// WorkDirectory is a dereplication work directory.
type WorkDirectory struct {
	Location string
	store    Store
}

// New returns a work directory backed by store.
func New(location string, store Store) *WorkDirectory {
	return &WorkDirectory{location, store}
}

// Open returns the work directory at location.  Locations starting with
// gs:// are read through a storage client obtained from newClient; anything
// else is a local directory.
func Open(ctx context.Context, location string, newClient NewClientFunc) (*WorkDirectory, error) {
	if !strings.HasPrefix(location, gcsScheme) {
		return New(location, NewLocalStore(location)), nil
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %v", err)
	}
	store, err := NewGCSStore(client, location)
	if err != nil {
		return nil, fmt.Errorf("parsing location %q: %v", location, err)
	}
	return New(location, store), nil
}

// Store returns the storage engine behind the work directory.
func (wd *WorkDirectory) Store() Store {
	return wd.store
}

func (wd *WorkDirectory) read(ctx context.Context, name string, parse func(io.Reader) error) error {
	r, err := wd.store.Open(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := parse(r); err != nil {
		return fmt.Errorf("parsing %s: %v", name, err)
	}
	return nil
}

// Mdb loads the MASH comparison table.
func (wd *WorkDirectory) Mdb(ctx context.Context) (db table.Mdb, err error) {
	err = wd.read(ctx, TablesDir+"Mdb.csv", func(r io.Reader) (err error) {
		db, err = table.ReadMdb(r)
		return err
	})
	return db, err
}

// Ndb loads the ANIn comparison table.
func (wd *WorkDirectory) Ndb(ctx context.Context) (db table.Ndb, err error) {
	err = wd.read(ctx, TablesDir+"Ndb.csv", func(r io.Reader) (err error) {
		db, err = table.ReadNdb(r)
		return err
	})
	return db, err
}

// Cdb loads the cluster assignment table.
func (wd *WorkDirectory) Cdb(ctx context.Context) (db table.Cdb, err error) {
	err = wd.read(ctx, TablesDir+"Cdb.csv", func(r io.Reader) (err error) {
		db, err = table.ReadCdb(r)
		return err
	})
	return db, err
}

// Gdb loads the genome information table.  It returns ErrNotExist when the
// pipeline did not record genome lengths.
func (wd *WorkDirectory) Gdb(ctx context.Context) (db table.Gdb, err error) {
	err = wd.read(ctx, TablesDir+"Gdb.csv", func(r io.Reader) (err error) {
		db, err = table.ReadGdb(r)
		return err
	})
	return db, err
}

// MashLinkage loads the linkage of the primary (MASH) clustering.
func (wd *WorkDirectory) MashLinkage(ctx context.Context) (l *linkage.Linkage, err error) {
	err = wd.read(ctx, mashLinkageFile, func(r io.Reader) (err error) {
		l, err = linkage.Read(r)
		return err
	})
	return l, err
}

// ANInLinkages loads the secondary (ANIn) linkage of every MASH cluster that
// has one, keyed by MASH cluster.
func (wd *WorkDirectory) ANInLinkages(ctx context.Context) (map[int]*linkage.Linkage, error) {
	names, err := wd.store.List(ctx, aninLinkagePrefix)
	if err != nil {
		return nil, fmt.Errorf("listing linkages: %v", err)
	}

	linkages := make(map[int]*linkage.Linkage)
	for _, name := range names {
		if !strings.HasSuffix(name, linkageSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, aninLinkagePrefix), linkageSuffix)
		cluster, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("linkage %s: invalid cluster %q", name, id)
		}
		err = wd.read(ctx, name, func(r io.Reader) error {
			l, err := linkage.Read(r)
			linkages[cluster] = l
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return linkages, nil
}

// ClusterArguments holds the clustering parameters recorded by the pipeline
// that the figures refer to.
type ClusterArguments struct {
	// MashThreshold is the primary clustering cut height.
	MashThreshold float64 `yaml:"ML_thresh"`
	// ANInThreshold is the secondary clustering cut height.
	ANInThreshold float64 `yaml:"NL_thresh"`
}

// DefaultClusterArguments are used for values the work directory does not
// record.
var DefaultClusterArguments = ClusterArguments{
	MashThreshold: 0.1,
	ANInThreshold: 0.01,
}

// ClusterArguments loads the clustering parameters, falling back to
// DefaultClusterArguments for any that are missing.
func (wd *WorkDirectory) ClusterArguments(ctx context.Context) (ClusterArguments, error) {
	args := DefaultClusterArguments
	err := wd.read(ctx, ArgumentsFile, func(r io.Reader) error {
		if err := yaml.NewDecoder(r).Decode(&args); err != nil && err != io.EOF {
			return err
		}
		return nil
	})
	if err == ErrNotExist {
		return DefaultClusterArguments, nil
	}
	return args, err
}

// CreateFigure returns a writer for a figure.  The figure is stored once the
// writer is closed.
func (wd *WorkDirectory) CreateFigure(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := checkFigureName(name); err != nil {
		return nil, err
	}
	return wd.store.Create(ctx, FiguresDir+name)
}

// OpenFigure returns a reader for a previously stored figure.
func (wd *WorkDirectory) OpenFigure(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkFigureName(name); err != nil {
		return nil, err
	}
	return wd.store.Open(ctx, FiguresDir+name)
}

// Figures lists the stored figures.
func (wd *WorkDirectory) Figures(ctx context.Context) ([]string, error) {
	names, err := wd.store.List(ctx, FiguresDir)
	if err != nil {
		return nil, err
	}
	figures := make([]string, 0, len(names))
	for _, name := range names {
		figures = append(figures, strings.TrimPrefix(name, FiguresDir))
	}
	return figures, nil
}

// checkFigureName accepts only bare file names.
func checkFigureName(name string) error {
	if name == "" || name == "." || name == ".." || path.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
