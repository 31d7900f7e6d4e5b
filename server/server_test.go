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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/googlegenomics/drepviz/analyze"
	"github.com/googlegenomics/drepviz/internal/analytics"
	"github.com/googlegenomics/drepviz/workdir"
)

const fixture = "../workdir/testdata/wd"

func init() {
	gin.SetMode(gin.TestMode)
}

// testDirectory copies the fixture work directory and draws its figures.
func testDirectory(t *testing.T) string {
	dir := t.TempDir()
	err := filepath.Walk(fixture, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(fixture, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		return os.WriteFile(target, content, 0644)
	})
	require.NoError(t, err)

	_, err = analyze.Analyze(context.Background(), workdir.New(dir, workdir.NewLocalStore(dir)), analyze.DefaultOptions)
	require.NoError(t, err)
	return dir
}

func newRouter(server *Server) *gin.Engine {
	router := gin.New()
	server.Export(router)
	return router
}

func get(router http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func TestListFigures(t *testing.T) {
	dir := testDirectory(t)
	router := newRouter(NewServer(nil, dir))

	w := get(router, "/figures", "Origin", "http://example.com")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "http://example.com", w.Header().Get("Access-Control-Allow-Origin"))

	var body struct {
		Location string   `json:"location"`
		Figures  []string `json:"figures"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, dir, body.Location)
	assert.Equal(t, []string{
		"ANIn_Mcluster1_dendrogram.svg",
		"ANIn_Mcluster1_heatmap.svg",
		"MASH_clustering_dendrogram.svg",
		"MASH_clustering_heatmap.svg",
	}, body.Figures)
}

func TestListFiguresEmpty(t *testing.T) {
	router := newRouter(NewServer(nil, t.TempDir()))
	w := get(router, "/figures")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"figures":[]`)
}

func TestServeFigure(t *testing.T) {
	router := newRouter(NewServer(nil, testDirectory(t)))

	w := get(router, "/figures/MASH_clustering_heatmap.svg")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")

	w = get(router, "/figures/missing.svg")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decodeError(t, w))

	for _, target := range []string{"/figures/", "/figures/sub/MASH_clustering_heatmap.svg"} {
		w = get(router, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, "InvalidInput", decodeError(t, w))
	}
}

func TestWorkDirectoryErrors(t *testing.T) {
	testCases := []struct {
		name, location, target string
		code                   int
		error                  string
	}{
		{"no work directory", "", "/figures", http.StatusBadRequest, "InvalidInput"},
		{"other local directory", t.TempDir(), "/figures?wd=" + url.QueryEscape("/etc"), http.StatusForbidden, "PermissionDenied"},
		{"invalid bucket", "", "/figures?wd=" + url.QueryEscape("gs://"), http.StatusBadRequest, "InvalidInput"},
		{"bucket not whitelisted", "", "/figures?wd=" + url.QueryEscape("gs://other/wd"), http.StatusForbidden, "PermissionDenied"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := NewServer(nil, tc.location)
			server.Whitelist([]string{"test-bucket"})
			w := get(newRouter(server), tc.target)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.error, decodeError(t, w))
		})
	}
}

func TestStorageErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		target string
		code   int
		error  string
	}{
		{"figure not found", http.StatusNotFound, "/figures/a.svg", http.StatusNotFound, "NotFound"},
		{"figure forbidden", http.StatusForbidden, "/figures/a.svg", http.StatusForbidden, "PermissionDenied"},
		{"figure unauthorized", http.StatusUnauthorized, "/figures/a.svg", http.StatusUnauthorized, "InvalidAuthentication"},
		{"list forbidden", http.StatusForbidden, "/figures", http.StatusForbidden, "PermissionDenied"},
		{"tables not found", http.StatusNotFound, "/interactive/mash", http.StatusNotFound, "NotFound"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := NewServer(testClient(fixedStatus(tc.status)), "")
			target := tc.target + "?wd=" + url.QueryEscape("gs://test-bucket/wd")
			w := get(newRouter(server), target)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
			assert.Equal(t, tc.error, decodeError(t, w))
		})
	}
}

func TestMissingToken(t *testing.T) {
	server := NewServer(BearerToken, "")
	w := get(newRouter(server), "/figures?wd="+url.QueryEscape("gs://test-bucket/wd"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PermissionDenied", decodeError(t, w))
}

func TestInteractiveMash(t *testing.T) {
	router := newRouter(NewServer(nil, testDirectory(t)))

	w := get(router, "/interactive/mash")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, htmlContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "echarts")
	assert.Contains(t, w.Body.String(), "MASH clustering")
}

func TestInteractiveANIn(t *testing.T) {
	dir := testDirectory(t)
	router := newRouter(NewServer(nil, dir))

	w := get(router, "/interactive/anin/1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "ANI of MASH cluster 1")

	w = get(router, "/interactive/anin/2")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decodeError(t, w))

	w = get(router, "/interactive/anin/x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidInput", decodeError(t, w))

	require.NoError(t, os.Remove(filepath.Join(dir, "data/Clustering_files/ANIn_linkage_cluster_1.json")))
	w = get(router, "/interactive/anin/1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "MASH cluster 1 - ANIn")
}

func TestTracking(t *testing.T) {
	var hits []analytics.Hit
	router := gin.New()
	router.Use(analytics.Middleware(func(h []analytics.Hit) { hits = append(hits, h...) }))
	NewServer(nil, testDirectory(t)).Export(router)

	get(router, "/figures/ANIn_Mcluster1_heatmap.svg")
	require.Len(t, hits, 1)
	assert.Equal(t, analytics.FigureEvent("Figure Served", "ANIn_Mcluster1_heatmap.svg"), hits[0])
}

func testClient(transport http.RoundTripper) NewStorageClientFunc {
	return func(req *http.Request) (*storage.Client, error) {
		return storage.NewClient(req.Context(), option.WithHTTPClient(&http.Client{Transport: transport}))
	}
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Header:     http.Header{},
		Body:       http.NoBody,
	}, nil
}
