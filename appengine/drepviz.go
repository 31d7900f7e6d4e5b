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

// Package drepviz serves work directory figures from App Engine.  The work
// directory served by default is read from WORK_DIRECTORY and the buckets
// that may be read from BUCKET_WHITELIST.
package drepviz

import (
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"google.golang.org/appengine"

	"github.com/googlegenomics/drepviz/server"
	"github.com/googlegenomics/drepviz/workdir"
)

func init() {
	router := gin.New()
	router.Use(gin.Recovery())

	figures := server.NewServer(newAppEngineClient, os.Getenv("WORK_DIRECTORY"))
	if list := os.Getenv("BUCKET_WHITELIST"); list != "" {
		figures.Whitelist(strings.Split(list, ","))
	}
	figures.Export(router)
	http.Handle("/", router)
}

func newAppEngineClient(req *http.Request) (*storage.Client, error) {
	client, _, err := workdir.NewClientFromBearerToken(req.WithContext(appengine.NewContext(req)))
	return client, err
}
