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

// This binary downloads the figures of a work directory from a figure server,
// authenticating with Google application default credentials.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	scope = "https://www.googleapis.com/auth/devstorage.read_only"
)

var (
	wd        = flag.String("wd", "", "work directory to request, gs://bucket/path")
	output    = flag.String("o", ".", "output directory")
	anonymous = flag.Bool("anonymous", false, "do not send credentials")
)

func main() {
	flag.Parse()

	if err := os.MkdirAll(*output, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	ctx := context.Background()

	// For compatibility with other tools, read the standard cURL certificate
	// authority override from the environment.
	if bundle := os.Getenv("CURL_CA_BUNDLE"); bundle != "" {
		pem, err := ioutil.ReadFile(bundle)
		if err != nil {
			log.Fatalf("Failed to read CA override file %q: %v", bundle, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			log.Fatalf("Failed to initialize system certificate pool: %v", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			log.Fatalf("Failed to add certificates from bundle %q", bundle)
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs: pool,
				}},
		})
		log.Printf("Using CA override bundle from %q", bundle)
	}

	client := http.DefaultClient
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		client = c
	}
	if !*anonymous {
		var err error
		if client, err = google.DefaultClient(ctx, scope); err != nil {
			log.Fatalf("Failed to create client: %v", err)
		}
	}

	for _, server := range flag.Args() {
		log.Printf("Listing figures on %q", server)
		names, err := listFigures(client, server, *wd)
		if err != nil {
			log.Fatalf("Failed to list figures: %v", err)
		}
		log.Printf("Received %d figure names", len(names))

		for _, name := range names {
			n, err := download(client, server, *wd, name, *output)
			if err != nil {
				log.Fatalf("Figure %s: %v", name, err)
			}
			log.Printf("Figure %s: wrote %s", name, humanSize(n))
		}
	}
}

// figureURL returns the address of path on server, requesting work directory
// wd when it is set.
func figureURL(server, path, wd string) string {
	target := strings.TrimSuffix(server, "/") + path
	if wd == "" {
		return target
	}
	values := url.Values{}
	values.Set("wd", wd)
	return target + "?" + values.Encode()
}

func listFigures(client *http.Client, server, wd string) ([]string, error) {
	resp, err := client.Get(figureURL(server, "/figures", wd))
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var listing struct {
		Figures []string `json:"figures"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding response: %v", err)
	}
	return listing.Figures, nil
}

func download(client *http.Client, server, wd, name, dir string) (int64, error) {
	if name != filepath.Base(name) {
		return 0, fmt.Errorf("refusing to write outside %s", dir)
	}
	resp, err := client.Get(figureURL(server, "/figures/"+url.PathEscape(name), wd))
	if err != nil {
		return 0, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errorFromResponse(resp)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return 0, fmt.Errorf("creating output: %v", err)
	}
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("copying data to disk: %v", err)
	}
	return n, f.Close()
}

func humanSize(n int64) string {
	kb := n / 1024
	mb := kb / 1024
	if mb > 1 {
		return fmt.Sprintf("%d MB", mb)
	}
	if kb > 1 {
		return fmt.Sprintf("%d KB", kb)
	}
	return fmt.Sprintf("%d bytes", n)
}

func errorFromResponse(resp *http.Response) error {
	var v struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&v); err == nil && v.Error != "" {
			return fmt.Errorf("%s: %s", v.Error, v.Message)
		}
	}
	return fmt.Errorf("unexpected response status: %q", resp.Status)
}
