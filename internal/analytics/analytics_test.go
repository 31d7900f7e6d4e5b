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

package analytics

import (
	"bufio"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendBatches(t *testing.T) {
	var requests int
	client := fakeBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	})

	var hits []Hit
	for i := 0; i < client.batchSize*3+1; i++ {
		hits = append(hits, FigureEvent("Figure Served", "MASH_clustering_heatmap.svg"))
	}
	require.NoError(t, client.Send(context.Background(), hits))
	assert.Equal(t, 4, requests)
}

func TestSendPayloads(t *testing.T) {
	var payloads []string
	client := fakeBackend(t, func(w http.ResponseWriter, req *http.Request) {
		scanner := bufio.NewScanner(req.Body)
		for scanner.Scan() {
			payloads = append(payloads, scanner.Text())
		}
		w.WriteHeader(http.StatusOK)
	})

	hits := []Hit{
		FigureEvent("Figure Served", "ANIn_Mcluster3_heatmap.png"),
		FigureEvent("Figures Listed", ""),
	}
	require.NoError(t, client.Send(context.Background(), hits))
	require.Len(t, payloads, len(hits))

	for i, payload := range payloads {
		got, err := url.ParseQuery(payload)
		require.NoError(t, err)

		want := url.Values{
			"v":   []string{"1"},
			"cid": []string{client.clientID},
			"tid": []string{client.propertyID},
		}
		for key, value := range hits[i] {
			want.Add(key, value)
		}
		assert.Equal(t, want, got, "hit %d", i)
	}
}

func TestSendError(t *testing.T) {
	client := fakeBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, client.Send(context.Background(), []Hit{Event("tests", "test", "", nil)}))
	assert.NoError(t, client.Send(context.Background(), nil))
}

func TestEventParameters(t *testing.T) {
	hit := Event("tests", "test", "", nil)
	assert.Equal(t, "event", hit["t"])
	assert.NotContains(t, hit, "el")
	assert.NotContains(t, hit, "ev")

	testCases := []struct {
		name  string
		value int64
		want  string
	}{
		{"zero", 0, "0"},
		{"maximum", math.MaxInt64, strconv.Itoa(math.MaxInt64)},
		{"minimum", math.MinInt64, strconv.Itoa(math.MinInt64)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Event("tests", "test", "", &tc.value)["ev"])
		})
	}
}

func TestFigureEvent(t *testing.T) {
	testCases := []struct {
		name, want string
	}{
		{"ANIn_Mcluster12_heatmap.svg", "ANIn_Mcluster_heatmap"},
		{"MASH_clustering_dendrogram.png", "MASH_clustering_dendrogram"},
		{"", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hit := FigureEvent("Figure Served", tc.name)
			assert.Equal(t, figuresCategory, hit["ec"])
			assert.Equal(t, tc.want, hit["el"])
		})
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	want := []Hit{
		Event("tests", "test", "a", nil),
		Event("tests", "test", "b", nil),
	}

	var got []Hit
	router := gin.New()
	router.Use(Middleware(func(hits []Hit) { got = hits }))
	router.GET("/test", func(c *gin.Context) {
		track := TrackerFromContext(c.Request.Context())
		for _, hit := range want {
			track(hit)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, want, got)
}

func TestTrackerFromContextWithoutMiddleware(t *testing.T) {
	track := TrackerFromContext(context.Background())
	require.NotNil(t, track)
	track(Event("tests", "test", "", nil))
}

func TestNewAnonymousClient(t *testing.T) {
	a, b := NewAnonymousClient("UA-TEST123"), NewAnonymousClient("UA-TEST123")
	assert.NotEqual(t, a.clientID, b.clientID)
	assert.Len(t, a.clientID, 36)
}

func fakeBackend(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("UA-TEST123", "0001-0002-0003-0004")
	client.endpoint = server.URL
	return client
}
