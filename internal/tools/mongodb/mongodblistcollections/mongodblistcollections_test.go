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

package mongodblistcollections_test

import (
	"testing"

	yaml "github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mongobox/mongobox/internal/server"
	"github.com/mongobox/mongobox/internal/sources"
	mongosrc "github.com/mongobox/mongobox/internal/sources/mongodb"
	"github.com/mongobox/mongobox/internal/testutils"
	"github.com/mongobox/mongobox/internal/tools/mongodb/mongodblistcollections"
)

func TestParseFromYamlMongoListCollections(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	tcs := []struct {
		desc string
		in   string
		want server.ToolConfigs
	}{
		{
			desc: "basic example",
			in: `
			tools:
				example_tool:
					kind: mongodb-list-collections
					source: my-instance
					description: some description
					database: test_db
			`,
			want: server.ToolConfigs{
				"example_tool": mongodblistcollections.Config{
					Name:         "example_tool",
					Kind:         "mongodb-list-collections",
					Source:       "my-instance",
					AuthRequired: []string{},
					Description:  "some description",
					Database:     "test_db",
				},
			},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			got := struct {
				Tools server.ToolConfigs `yaml:"tools"`
			}{}
			// Parse contents
			err := yaml.UnmarshalContext(ctx, testutils.FormatYaml(tc.in), &got)
			if err != nil {
				t.Fatalf("unable to unmarshal: %s", err)
			}
			if diff := cmp.Diff(tc.want, got.Tools); diff != "" {
				t.Fatalf("incorrect parse: diff %v", diff)
			}
		})
	}
}

func TestListCollectionsParams(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	tracer := noop.NewTracerProvider().Tracer("test")
	src, err := mongosrc.Config{
		Name:   "my-instance",
		Kind:   "mongodb",
		UriEnv: "MONGOBOX_TEST_URI_UNSET",
	}.Initialize(ctx, tracer)
	if err != nil {
		t.Fatalf("unable to initialize source: %s", err)
	}

	// pinned database means the tool takes no parameters
	pinned, err := mongodblistcollections.Config{
		Name:        "list",
		Kind:        "mongodb-list-collections",
		Source:      "my-instance",
		Description: "list",
		Database:    "test_db",
	}.Initialize(map[string]sources.Source{"my-instance": src})
	if err != nil {
		t.Fatalf("unable to initialize tool: %s", err)
	}
	if got := len(pinned.Manifest().Parameters); got != 0 {
		t.Fatalf("expected no parameters for pinned database, got %d", got)
	}

	// unpinned database becomes a required parameter
	unpinned, err := mongodblistcollections.Config{
		Name:        "list",
		Kind:        "mongodb-list-collections",
		Source:      "my-instance",
		Description: "list",
	}.Initialize(map[string]sources.Source{"my-instance": src})
	if err != nil {
		t.Fatalf("unable to initialize tool: %s", err)
	}
	manifest := unpinned.Manifest()
	if len(manifest.Parameters) != 1 || manifest.Parameters[0].Name != "database" {
		t.Fatalf("unexpected parameters: %v", manifest.Parameters)
	}
	if _, err := unpinned.ParseParams(map[string]any{}, nil); err == nil {
		t.Fatalf("expected error for missing database parameter")
	}
}
