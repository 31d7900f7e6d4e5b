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

package workdir

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const testBucket = "test-bucket"

func TestLocalTables(t *testing.T) {
	ctx := context.Background()
	wd, err := Open(ctx, "testdata/wd", nil)
	require.NoError(t, err)

	mdb, err := wd.Mdb(ctx)
	require.NoError(t, err)
	assert.Len(t, mdb, 16)

	ndb, err := wd.Ndb(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ndb.MashClusters())

	cdb, err := wd.Cdb(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cdb.GenomesIn(1))

	gdb, err := wd.Gdb(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4000000.0, gdb.Lengths()["d"])
}

func TestLocalLinkages(t *testing.T) {
	ctx := context.Background()
	wd, err := Open(ctx, "testdata/wd", nil)
	require.NoError(t, err)

	mash, err := wd.MashLinkage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, mash.Leaves())

	anin, err := wd.ANInLinkages(ctx)
	require.NoError(t, err)
	require.Len(t, anin, 1)
	assert.Equal(t, []string{"a", "b", "c"}, anin[1].Genomes)
}

func TestClusterArguments(t *testing.T) {
	ctx := context.Background()
	wd, err := Open(ctx, "testdata/wd", nil)
	require.NoError(t, err)

	args, err := wd.ClusterArguments(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClusterArguments{MashThreshold: 0.1, ANInThreshold: 0.02}, args)

	empty := New("empty", NewLocalStore(t.TempDir()))
	args, err = empty.ClusterArguments(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultClusterArguments, args)
}

func TestClusterArgumentsPartial(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	wd := New(dir, NewLocalStore(dir))
	writeObject(t, wd.Store(), ArgumentsFile, "NL_thresh: 0.05\n")

	args, err := wd.ClusterArguments(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClusterArguments{MashThreshold: 0.1, ANInThreshold: 0.05}, args)
}

func TestMissingTable(t *testing.T) {
	ctx := context.Background()
	wd := New("empty", NewLocalStore(t.TempDir()))
	_, err := wd.Gdb(ctx)
	assert.Equal(t, ErrNotExist, err)

	anin, err := wd.ANInLinkages(ctx)
	require.NoError(t, err)
	assert.Empty(t, anin)
}

func TestInvalidLinkageName(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	wd := New(dir, NewLocalStore(dir))
	writeObject(t, wd.Store(), ClusteringDir+"ANIn_linkage_cluster_x.json", "{}")

	_, err := wd.ANInLinkages(ctx)
	assert.Error(t, err)
}

func TestFigures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	wd := New(dir, NewLocalStore(dir))

	for _, name := range []string{"b.svg", "a.svg"} {
		w, err := wd.CreateFigure(ctx, name)
		require.NoError(t, err)
		fmt.Fprint(w, "<svg/>")
		require.NoError(t, w.Close())
	}

	figures, err := wd.Figures(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.svg", "b.svg"}, figures)

	r, err := wd.OpenFigure(ctx, "a.svg")
	require.NoError(t, err)
	defer r.Close()
	content, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(content))

	_, err = wd.OpenFigure(ctx, "missing.svg")
	assert.Equal(t, ErrNotExist, err)
}

func TestInvalidFigureNames(t *testing.T) {
	ctx := context.Background()
	wd := New("empty", NewLocalStore(t.TempDir()))
	for _, name := range []string{"", "../Mdb.csv", "/etc/passwd", "a/../../b", "a/b.svg", "sub/dir/x.svg", ".", ".."} {
		t.Run(name, func(t *testing.T) {
			if _, err := wd.CreateFigure(ctx, name); err != ErrInvalidName {
				t.Errorf("CreateFigure(%q) returned %v, want %v", name, err, ErrInvalidName)
			}
			if _, err := wd.OpenFigure(ctx, name); err != ErrInvalidName {
				t.Errorf("OpenFigure(%q) returned %v, want %v", name, err, ErrInvalidName)
			}
		})
	}
}

func TestParseGCSLocation(t *testing.T) {
	testCases := []struct {
		location, bucket, prefix string
		ok                       bool
	}{
		{"gs://bucket", "bucket", "", true},
		{"gs://bucket/", "bucket", "", true},
		{"gs://bucket/runs/wd", "bucket", "runs/wd/", true},
		{"gs://bucket/runs/wd/", "bucket", "runs/wd/", true},
		{"gs://", "", "", false},
		{"/local/wd", "", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.location, func(t *testing.T) {
			bucket, prefix, err := ParseGCSLocation(tc.location)
			if tc.ok != (err == nil) {
				t.Fatalf("ParseGCSLocation(%q) error = %v, want ok=%v", tc.location, err, tc.ok)
			}
			if bucket != tc.bucket || prefix != tc.prefix {
				t.Errorf("ParseGCSLocation(%q) = %q, %q, want %q, %q", tc.location, bucket, prefix, tc.bucket, tc.prefix)
			}
		})
	}
}

func TestGCSTables(t *testing.T) {
	ctx := context.Background()
	wd, err := Open(ctx, "gs://"+testBucket+"/wd", testClient(&fakeGCS{t}))
	require.NoError(t, err)

	mdb, err := wd.Mdb(ctx)
	require.NoError(t, err)
	assert.Len(t, mdb, 16)

	mash, err := wd.MashLinkage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, mash.Leaves())
}

func TestGCSNotFound(t *testing.T) {
	ctx := context.Background()
	wd, err := Open(ctx, "gs://"+testBucket+"/wd", testClient(fixedStatus(http.StatusNotFound)))
	require.NoError(t, err)

	_, err = wd.Mdb(ctx)
	assert.Equal(t, ErrNotExist, err)
}

func TestCachedClients(t *testing.T) {
	ctx := context.Background()
	opt := option.WithHTTPClient(http.DefaultClient)

	var first, second cachedClient
	a, err := first.get(ctx, opt)
	require.NoError(t, err)
	again, err := first.get(ctx)
	require.NoError(t, err)
	assert.True(t, a == again, "client is not cached")

	b, err := second.get(ctx, opt)
	require.NoError(t, err)
	assert.True(t, a != b, "separate caches share a client")
}

func TestNewClientFromBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/figures", nil)
	_, _, err := NewClientFromBearerToken(req)
	assert.Equal(t, ErrMissingOrInvalidToken, err)

	req.Header.Set("Authorization", "Bearer token")
	client, headers, err := NewClientFromBearerToken(req)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "Bearer token", headers.Get("Authorization"))
}

func writeObject(t *testing.T, store Store, name, content string) {
	w, err := store.Create(context.Background(), name)
	require.NoError(t, err)
	fmt.Fprint(w, content)
	require.NoError(t, w.Close())
}

func testClient(transport http.RoundTripper) NewClientFunc {
	return func(ctx context.Context) (*storage.Client, error) {
		return storage.NewClient(ctx, option.WithHTTPClient(&http.Client{Transport: transport}))
	}
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Body:       http.NoBody,
	}, nil
}

// fakeGCS serves objects of the test bucket from the testdata directory.
type fakeGCS struct {
	*testing.T
}

func (fake *fakeGCS) RoundTrip(req *http.Request) (*http.Response, error) {
	filename := "testdata" + strings.TrimPrefix(req.URL.Path, "/"+testBucket)

	content, err := os.Open(filename)
	if err != nil {
		response := httptest.NewRecorder()
		http.Error(response, fmt.Sprintf("Failed to open test data: %v", err), http.StatusNotFound)
		return response.Result(), nil
	}
	defer content.Close()

	w := httptest.NewRecorder()
	http.ServeContent(w, req, filename, time.Now(), content)
	return w.Result(), nil
}
