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

package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/googlegenomics/drepviz/analyze"
	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/internal/analytics"
	"github.com/googlegenomics/drepviz/internal/linkage"
	"github.com/googlegenomics/drepviz/internal/palette"
	"github.com/googlegenomics/drepviz/workdir"
)

const htmlContentType = "text/html; charset=utf-8"

// colorStops samples the heatmap color map for the visual map of the page.
var colorStops = func() []string {
	var stops []string
	for i := 0; i <= 8; i++ {
		stops = append(stops, palette.Hex(palette.Rocket(float64(i)/8)))
	}
	return stops
}()

func (server *Server) serveMashHeatmap(c *gin.Context) {
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.FigureEvent("Interactive Heatmap", "MASH"))

	wd, err := server.workDirectory(c)
	if err != nil {
		writeError(c, err)
		return
	}
	mdb, err := wd.Mdb(ctx)
	if err != nil {
		writeError(c, newStorageError("loading Mdb", err))
		return
	}
	cdb, err := wd.Cdb(ctx)
	if err != nil {
		writeError(c, newStorageError("loading Cdb", err))
		return
	}
	l, err := optionalLinkage(wd.MashLinkage(ctx))
	if err != nil {
		writeError(c, newStorageError("loading MASH linkage", err))
		return
	}

	var h *figure.Heatmap
	if l != nil {
		f, err := analyze.MashClusters(mdb, cdb, l, 0)
		if err != nil {
			writeError(c, err)
			return
		}
		h = f.Heatmap
	} else if h, err = analyze.MashHeatmap(mdb, nil); err != nil {
		writeError(c, err)
		return
	}
	writeHeatmap(c, h)
}

func (server *Server) serveANInHeatmap(c *gin.Context) {
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.FigureEvent("Interactive Heatmap", "ANIn"))

	cluster, err := strconv.Atoi(c.Param("cluster"))
	if err != nil {
		writeError(c, newInvalidInputError("parsing cluster", err))
		return
	}
	wd, err := server.workDirectory(c)
	if err != nil {
		writeError(c, err)
		return
	}
	h, err := aninHeatmap(ctx, wd, cluster)
	if err != nil {
		writeError(c, err)
		return
	}
	writeHeatmap(c, h)
}

// aninHeatmap returns the clustered heatmap of a MASH cluster when the
// cluster has a secondary linkage, and its plain ANIn heatmap otherwise.
func aninHeatmap(ctx context.Context, wd *workdir.WorkDirectory, cluster int) (*figure.Heatmap, error) {
	ndb, err := wd.Ndb(ctx)
	if err != nil {
		return nil, newStorageError("loading Ndb", err)
	}
	linkages, err := wd.ANInLinkages(ctx)
	if err != nil {
		return nil, newStorageError("loading ANIn linkages", err)
	}

	if l, ok := linkages[cluster]; ok {
		cdb, err := wd.Cdb(ctx)
		if err != nil {
			return nil, newStorageError("loading Cdb", err)
		}
		figures, err := analyze.ANInClusters(ndb, cdb, map[int]*linkage.Linkage{cluster: l}, 0)
		if err != nil {
			return nil, err
		}
		return figures[cluster].Heatmap, nil
	}

	heatmaps, err := analyze.ANInHeatmaps(ndb, nil)
	if err != nil {
		return nil, err
	}
	h, ok := heatmaps[cluster]
	if !ok {
		return nil, newNotFoundError("loading heatmap", fmt.Errorf("MASH cluster %d has no comparisons to plot", cluster))
	}
	return h, nil
}

func optionalLinkage(l *linkage.Linkage, err error) (*linkage.Linkage, error) {
	if err == workdir.ErrNotExist {
		return nil, nil
	}
	return l, err
}

func writeHeatmap(c *gin.Context, h *figure.Heatmap) {
	var buf bytes.Buffer
	if err := renderInteractive(&buf, h); err != nil {
		writeError(c, fmt.Errorf("rendering heatmap: %v", err))
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// renderInteractive writes an HTML page showing h in its drawing order.
func renderInteractive(w io.Writer, h *figure.Heatmap) error {
	m, vmin, vmax, err := h.Ordered()
	if err != nil {
		return err
	}
	rows, cols := m.Dims()

	// Category axes count from the bottom, so the first row is drawn last.
	rowNames := make([]string, rows)
	for i, name := range m.Rows {
		rowNames[rows-1-i] = name
	}

	var data []opts.HeatMapData
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			data = append(data, opts.HeatMapData{
				Name:  m.Rows[i] + " / " + m.Cols[j],
				Value: [3]interface{}{j, rows - 1 - i, v},
			})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: h.Title,
			Width:     "1000px",
			Height:    "1000px",
		}),
		charts.WithTitleOpts(opts.Title{Title: h.Title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: m.Cols}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: rowNames}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min:     float32(vmin),
			Max:     float32(vmax),
			InRange: &opts.VisualMapInRange{Color: colorStops},
		}),
	)
	hm.AddSeries("similarity", data)
	return hm.Render(w)
}
