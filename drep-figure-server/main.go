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

// This binary serves the figures of dereplication work directories kept on
// local disk or in GCS.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/googlegenomics/drepviz/internal/analytics"
	"github.com/googlegenomics/drepviz/server"
	"github.com/googlegenomics/drepviz/workdir"
)

var (
	port = flag.Int("port", 8080, "HTTP service port")
	wd   = flag.String("wd", "", "work directory served when a request does not name one")

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")

	buckets = flag.String("buckets", "", "if set, restricts reads to a comma-separated list of buckets")

	// Enable or disable anonymous usage tracking.
	//
	// If enabled, the kind of figure requested is logged to Google Analytics.
	// Genome names, cluster numbers and work directory locations are never
	// sent.
	trackUsage = flag.Bool("track_usage", false, "anonymous usage tracking")
)

func main() {
	flag.Parse()

	if *secure && (*httpsCert == "" || *httpsKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}

	newStorageClient := server.FromContext(workdir.NewPublicClient)
	if *secure {
		newStorageClient = server.BearerToken
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if *trackUsage {
		log.Printf("Enabling anonymous usage tracking")

		client := analytics.NewAnonymousClient("UA-103022118-1")
		router.Use(analytics.Middleware(func(hits []analytics.Hit) {
			if err := client.Send(context.Background(), hits); err != nil {
				log.Printf("Failed to send %d hits to analytics: %v", len(hits), err)
			}
		}))
	}

	figures := server.NewServer(newStorageClient, *wd)
	if *buckets != "" {
		figures.Whitelist(strings.Split(*buckets, ","))
	}
	figures.Export(router)

	address := fmt.Sprintf(":%d", *port)
	if *secure {
		if err := router.RunTLS(address, *httpsCert, *httpsKey); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := router.Run(address); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}
