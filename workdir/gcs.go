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
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

var (
	errInvalidLocation       = errors.New("invalid GCS location")
	ErrMissingOrInvalidToken = errors.New("missing or invalid token")
)

// GCSStore is a Store for a work directory kept in Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore returns a store for location, which has the form
// gs://bucket/path/to/workdir.
func NewGCSStore(client *storage.Client, location string) (*GCSStore, error) {
	bucket, prefix, err := ParseGCSLocation(location)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client, bucket, prefix}, nil
}

// ParseGCSLocation splits a gs:// location into its bucket and object
// prefix.  A non-empty prefix always ends with a slash.
func ParseGCSLocation(location string) (string, string, error) {
	if !strings.HasPrefix(location, gcsScheme) {
		return "", "", errInvalidLocation
	}
	parts := strings.SplitN(strings.TrimPrefix(location, gcsScheme), "/", 2)
	if parts[0] == "" {
		return "", "", errInvalidLocation
	}
	var prefix string
	if len(parts) == 2 && strings.Trim(parts[1], "/") != "" {
		prefix = strings.Trim(parts[1], "/") + "/"
	}
	return parts[0], prefix, nil
}

// Bucket returns the bucket holding the work directory.
func (s *GCSStore) Bucket() string {
	return s.bucket
}

func (s *GCSStore) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + name)
}

// Open implements Store.
func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.object(name).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, ErrNotExist
	}
	return r, err
}

// Create implements Store.
func (s *GCSStore) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	return s.object(name).NewWriter(ctx), nil
}

// List implements Store.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix + prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		names = append(names, strings.TrimPrefix(attrs.Name, s.prefix))
	}
}

// NewClientFunc constructs the storage client used to reach a work
// directory.
type NewClientFunc func(ctx context.Context) (*storage.Client, error)

// cachedClient creates one storage client on first use and shares it.
type cachedClient struct {
	once   sync.Once
	client *storage.Client
	err    error
}

func (c *cachedClient) get(ctx context.Context, opts ...option.ClientOption) (*storage.Client, error) {
	c.once.Do(func() {
		c.client, c.err = storage.NewClient(ctx, opts...)
	})
	if c.err != nil {
		return nil, fmt.Errorf("creating storage client: %v", c.err)
	}
	return c.client, nil
}

var defaultClient, publicClient cachedClient

// NewDefaultClient returns a storage client that uses the application default
// credentials.  The client is cached and shared by all callers.
func NewDefaultClient(ctx context.Context) (*storage.Client, error) {
	return defaultClient.get(ctx)
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// work directories.  The client is cached and shared by all callers.
func NewPublicClient(ctx context.Context) (*storage.Client, error) {
	return publicClient.get(ctx, option.WithHTTPClient(http.DefaultClient))
}

// NewClientFromBearerToken constructs a storage client that uses the OAuth2
// bearer token found in req.  It also returns the authorization header so
// that follow-up requests can carry the same credentials.
func NewClientFromBearerToken(req *http.Request) (*storage.Client, http.Header, error) {
	authorization := req.Header.Get("Authorization")

	fields := strings.Split(authorization, " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, nil, ErrMissingOrInvalidToken
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	client, err := storage.NewClient(req.Context(), option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, nil, fmt.Errorf("creating client with token source: %v", err)
	}

	return client, http.Header{"Authorization": []string{authorization}}, nil
}
