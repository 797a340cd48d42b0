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

package mongodbinsertone_test

import (
	"testing"

	yaml "github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mongobox/mongobox/internal/server"
	"github.com/mongobox/mongobox/internal/sources"
	mongosrc "github.com/mongobox/mongobox/internal/sources/mongodb"
	"github.com/mongobox/mongobox/internal/testutils"
	"github.com/mongobox/mongobox/internal/tools"
	"github.com/mongobox/mongobox/internal/tools/mongodb/mongodbinsertone"
)

func TestParseFromYamlMongoInsertOne(t *testing.T) {
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
					kind: mongodb-insert-one
					source: my-instance
					description: some description
					database: test_db
					collection: test_coll
			`,
			want: server.ToolConfigs{
				"example_tool": mongodbinsertone.Config{
					Name:         "example_tool",
					Kind:         "mongodb-insert-one",
					Source:       "my-instance",
					AuthRequired: []string{},
					Description:  "some description",
					Database:     "test_db",
					Collection:   "test_coll",
				},
			},
		},
		{
			desc: "no pinned target",
			in: `
			tools:
				example_tool:
					kind: mongodb-insert-one
					source: my-instance
					description: some description
			`,
			want: server.ToolConfigs{
				"example_tool": mongodbinsertone.Config{
					Name:         "example_tool",
					Kind:         "mongodb-insert-one",
					Source:       "my-instance",
					AuthRequired: []string{},
					Description:  "some description",
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

func newTestTool(t *testing.T, cfg mongodbinsertone.Config) tools.Tool {
	t.Helper()
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
	tool, err := cfg.Initialize(map[string]sources.Source{"my-instance": src})
	if err != nil {
		t.Fatalf("unable to initialize tool: %s", err)
	}
	return tool
}

func TestInsertOneInvalidJSONEnvelope(t *testing.T) {
	tool := newTestTool(t, mongodbinsertone.Config{
		Name:        "insert",
		Kind:        "mongodb-insert-one",
		Source:      "my-instance",
		Description: "insert",
		Database:    "test_db",
		Collection:  "test_coll",
	})

	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// malformed document must be rejected before any driver call
	params := tools.ParamValues{{Name: "document_json", Value: `{"name": `}}
	res, err := tool.Invoke(ctx, params)
	if err != nil {
		t.Fatalf("validation failures must be reported in the envelope: %s", err)
	}
	envelope, ok := res.(map[string]any)
	if !ok {
		t.Fatalf("expected envelope map, got %T", res)
	}
	if envelope["error"] != "Invalid JSON format provided in document_json." {
		t.Fatalf("unexpected error message: %v", envelope["error"])
	}
}

func TestInsertOneManifestParams(t *testing.T) {
	tool := newTestTool(t, mongodbinsertone.Config{
		Name:        "insert",
		Kind:        "mongodb-insert-one",
		Source:      "my-instance",
		Description: "insert",
	})

	manifest := tool.Manifest()
	names := make([]string, 0, len(manifest.Parameters))
	for _, p := range manifest.Parameters {
		names = append(names, p.Name)
	}
	want := []string{"database", "collection", "document_json"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("incorrect parameters: diff %v", diff)
	}
}
