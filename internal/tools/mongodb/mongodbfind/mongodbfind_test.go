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

package mongodbfind_test

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
	"github.com/mongobox/mongobox/internal/tools/mongodb/mongodbfind"
)

func TestParseFromYamlMongoFind(t *testing.T) {
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
					kind: mongodb-find
					source: my-instance
					description: some description
					database: test_db
					collection: test_coll
			`,
			want: server.ToolConfigs{
				"example_tool": mongodbfind.Config{
					Name:         "example_tool",
					Kind:         "mongodb-find",
					Source:       "my-instance",
					AuthRequired: []string{},
					Description:  "some description",
					Database:     "test_db",
					Collection:   "test_coll",
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

func TestFindDefaults(t *testing.T) {
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
	cfg := mongodbfind.Config{
		Name:        "find",
		Kind:        "mongodb-find",
		Source:      "my-instance",
		Description: "find",
		Database:    "test_db",
		Collection:  "test_coll",
	}
	tool, err := cfg.Initialize(map[string]sources.Source{"my-instance": src})
	if err != nil {
		t.Fatalf("unable to initialize tool: %s", err)
	}

	// query_json and limit fall back to their defaults
	params, err := tool.ParseParams(map[string]any{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := map[string]any{"query_json": "{}", "limit": 5}
	if diff := cmp.Diff(want, params.AsMap()); diff != "" {
		t.Fatalf("incorrect defaults: diff %v", diff)
	}

	// malformed filter must be rejected before any driver call
	res, err := tool.Invoke(ctx, tools.ParamValues{{Name: "query_json", Value: `{oops`}})
	if err != nil {
		t.Fatalf("validation failures must be reported in the envelope: %s", err)
	}
	envelope := res.(map[string]any)
	if envelope["error"] != "Invalid JSON format provided in query_json." {
		t.Fatalf("unexpected error message: %v", envelope["error"])
	}
}
