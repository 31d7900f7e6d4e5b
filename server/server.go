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

// Package server serves the figures of dereplication work directories, and
// interactive versions of their heatmaps, over HTTP.
//
// Every route accepts an optional wd query parameter naming the work
// directory as gs://bucket/path.  Without it the server's own work directory
// is used.
package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"

	"github.com/googlegenomics/drepviz/figure"
	"github.com/googlegenomics/drepviz/internal/analytics"
	"github.com/googlegenomics/drepviz/workdir"
)

const (
	figuresPath     = "/figures"
	interactivePath = "/interactive"
)

var (
	errNoWorkDirectory = errors.New("no work directory specified")
	errLocalDirectory  = errors.New("only the server's own directory may be read from disk")
)

// NewStorageClientFunc constructs the storage client used to satisfy an
// incoming request.
type NewStorageClientFunc func(*http.Request) (*storage.Client, error)

// FromContext adapts a client constructor that only needs the request's
// context.
func FromContext(newClient workdir.NewClientFunc) NewStorageClientFunc {
	return func(req *http.Request) (*storage.Client, error) {
		return newClient(req.Context())
	}
}

// BearerToken constructs clients from the bearer token of each request.
func BearerToken(req *http.Request) (*storage.Client, error) {
	client, _, err := workdir.NewClientFromBearerToken(req)
	return client, err
}

// Server serves figures.  Must be created with NewServer.
type Server struct {
	newStorageClient NewStorageClientFunc
	location         string
	whitelist        map[string]bool
}

// NewServer returns a Server that reads GCS work directories with clients
// from newStorageClient.  Requests that do not name a work directory are
// served from location, which may be empty.
func NewServer(newStorageClient NewStorageClientFunc, location string) *Server {
	return &Server{newStorageClient, location, make(map[string]bool)}
}

// Whitelist adds buckets to the set of buckets which the server is allowed to
// access. If Whitelist is never called for a given Server then reads from any
// bucket are allowed.
func (server *Server) Whitelist(buckets []string) {
	for _, bucket := range buckets {
		server.whitelist[bucket] = true
	}
}

// Export registers the figure routes with router.
func (server *Server) Export(router gin.IRoutes) {
	router.Use(forwardOrigin)
	router.GET(figuresPath, server.listFigures)
	router.GET(figuresPath+"/*name", server.serveFigure)
	router.GET(interactivePath+"/mash", server.serveMashHeatmap)
	router.GET(interactivePath+"/anin/:cluster", server.serveANInHeatmap)
}

func (server *Server) checkWhitelist(bucket string) error {
	if len(server.whitelist) == 0 || server.whitelist[bucket] {
		return nil
	}
	return fmt.Errorf("access to bucket %s is not allowed", bucket)
}

// workDirectory opens the work directory a request refers to.
func (server *Server) workDirectory(c *gin.Context) (*workdir.WorkDirectory, error) {
	location := c.Query("wd")
	if location == "" {
		location = server.location
	}
	if location == "" {
		return nil, newInvalidInputError("opening work directory", errNoWorkDirectory)
	}

	if !strings.HasPrefix(location, "gs://") {
		if location != server.location {
			return nil, newPermissionDeniedError("opening work directory", errLocalDirectory)
		}
		return workdir.New(location, workdir.NewLocalStore(location)), nil
	}

	bucket, _, err := workdir.ParseGCSLocation(location)
	if err != nil {
		return nil, newInvalidInputError("parsing work directory", err)
	}
	if err := server.checkWhitelist(bucket); err != nil {
		return nil, newPermissionDeniedError("checking whitelist", err)
	}
	client, err := server.newStorageClient(c.Request)
	if err != nil {
		return nil, newStorageError("creating client", err)
	}
	store, err := workdir.NewGCSStore(client, location)
	if err != nil {
		return nil, newInvalidInputError("parsing work directory", err)
	}
	return workdir.New(location, store), nil
}

func (server *Server) listFigures(c *gin.Context) {
	ctx := c.Request.Context()
	track := analytics.TrackerFromContext(ctx)
	track(analytics.FigureEvent("Figures Listed", ""))

	wd, err := server.workDirectory(c)
	if err != nil {
		writeError(c, err)
		return
	}
	names, err := wd.Figures(ctx)
	if err != nil {
		writeError(c, newStorageError("listing figures", err))
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"location": wd.Location,
		"figures":  names,
	})
}

func (server *Server) serveFigure(c *gin.Context) {
	ctx := c.Request.Context()
	name := strings.TrimPrefix(c.Param("name"), "/")

	wd, err := server.workDirectory(c)
	if err != nil {
		writeError(c, err)
		return
	}
	r, err := wd.OpenFigure(ctx, name)
	if err == workdir.ErrInvalidName {
		writeError(c, newInvalidInputError("opening figure", fmt.Errorf("%q: %v", name, err)))
		return
	}
	if err != nil {
		writeError(c, newStorageError("opening figure "+name, err))
		return
	}
	defer r.Close()

	analytics.TrackerFromContext(ctx)(analytics.FigureEvent("Figure Served", name))

	c.Header("Content-Type", contentType(name))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, r); err != nil {
		log.Printf("Failed to copy figure %s: %v", name, err)
	}
}

// contentType returns the media type of a figure from its extension.
func contentType(name string) string {
	format, err := figure.ParseFormat(strings.TrimPrefix(path.Ext(name), "."))
	if err != nil {
		return "application/octet-stream"
	}
	return format.ContentType()
}

func forwardOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
	c.Next()
}
