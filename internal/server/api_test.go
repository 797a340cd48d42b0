// Copyright 2025 Mongobox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/mongobox/mongobox/internal/log"
	mongosrc "github.com/mongobox/mongobox/internal/sources/mongodb"
	"github.com/mongobox/mongobox/internal/telemetry"
	"github.com/mongobox/mongobox/internal/tools/mongodb/mongodbfind"
	"github.com/mongobox/mongobox/internal/tools/mongodb/mongodbping"
	"github.com/mongobox/mongobox/internal/util"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger, err := log.NewStdLogger(os.Stdout, os.Stderr, "warn")
	if err != nil {
		t.Fatalf("unable to initialize logger: %s", err)
	}
	ctx := util.WithLogger(context.Background(), logger)

	instrumentation, err := telemetry.CreateTelemetryInstrumentation("test")
	if err != nil {
		t.Fatalf("unable to create instrumentation: %s", err)
	}
	return util.WithInstrumentation(ctx, instrumentation)
}

func testServerConfig() ServerConfig {
	return ServerConfig{
		Version: "1.2.3",
		Address: "127.0.0.1",
		Port:    5000,
		SourceConfigs: SourceConfigs{
			"my-instance": mongosrc.Config{
				Name:   "my-instance",
				Kind:   "mongodb",
				UriEnv: "MONGOBOX_TEST_URI_UNSET",
			},
		},
		ToolConfigs: ToolConfigs{
			"mongodb_ping_database": mongodbping.Config{
				Name:        "mongodb_ping_database",
				Kind:        "mongodb-ping",
				Source:      "my-instance",
				Description: "ping the deployment",
			},
			"mongodb_find_document": mongodbfind.Config{
				Name:        "mongodb_find_document",
				Kind:        "mongodb-find",
				Source:      "my-instance",
				Description: "find documents",
				Database:    "test_db",
				Collection:  "test_coll",
			},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	ctx := testContext(t)
	s, err := NewServer(ctx, testServerConfig())
	if err != nil {
		t.Fatalf("unable to initialize server: %s", err)
	}
	ts := httptest.NewServer(s.root)
	t.Cleanup(ts.Close)
	return s, ts
}

func TestToolsetEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/toolset")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var manifest struct {
		ServerVersion string                     `json:"serverVersion"`
		Tools         map[string]json.RawMessage `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		t.Fatalf("unable to decode response: %s", err)
	}
	if manifest.ServerVersion != "1.2.3" {
		t.Fatalf("unexpected server version: %q", manifest.ServerVersion)
	}
	if len(manifest.Tools) != 2 {
		t.Fatalf("expected 2 tools in the default toolset, got %d", len(manifest.Tools))
	}
	if _, ok := manifest.Tools["mongodb_ping_database"]; !ok {
		t.Fatalf("expected mongodb_ping_database in manifest")
	}
}

func TestToolsetEndpointNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/toolset/nope")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestToolInvokeMissingCredential(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/tool/mongodb_ping_database/invoke", "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	// configuration failures are reported inside the envelope, not as HTTP errors
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body struct {
		Result map[string]any `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("unable to decode response: %s", err)
	}
	if body.Result["error"] != "MongoDB URI not configured" {
		t.Fatalf("unexpected envelope: %v", body.Result)
	}
	if _, ok := body.Result["help"]; !ok {
		t.Fatalf("expected help field for missing credential")
	}
}

func TestToolInvokeUnknownTool(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/tool/nope/invoke", "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestToolInvokeBadParams(t *testing.T) {
	_, ts := newTestServer(t)

	// limit must be an integer
	resp, err := http.Post(ts.URL+"/api/tool/mongodb_find_document/invoke", "application/json",
		bytes.NewBufferString(`{"limit": "five"}`))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestSetResources(t *testing.T) {
	s, ts := newTestServer(t)

	// drop every tool, the old set must stop serving
	s.SetResources(nil, nil, nil, nil)

	resp, err := http.Post(ts.URL+"/api/tool/mongodb_ping_database/invoke", "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
