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

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"

	"github.com/mongobox/mongobox/internal/server"
	mongosrc "github.com/mongobox/mongobox/internal/sources/mongodb"
	"github.com/mongobox/mongobox/internal/testutils"
	"github.com/mongobox/mongobox/internal/tools/mongodb/mongodbfind"
	"github.com/mongobox/mongobox/internal/tools/mongodb/mongodbping"
)

func invokeCommand(args []string) (*Command, string, error) {
	c := NewCommand()

	// Keep the test output quiet
	c.SilenceUsage = true

	buf := new(bytes.Buffer)
	c.SetOut(buf)
	c.SetErr(buf)
	c.SetArgs(args)

	err := c.Execute()
	return c, buf.String(), err
}

func TestVersion(t *testing.T) {
	_, got, err := invokeCommand([]string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(got, versionString) {
		t.Fatalf("expected version %q in output, got %q", versionString, got)
	}
}

func TestDefaultFlags(t *testing.T) {
	c, _, err := invokeCommand([]string{"--help"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if c.cfg.Address != "127.0.0.1" {
		t.Fatalf("unexpected default address: %q", c.cfg.Address)
	}
	if c.cfg.Port != 5000 {
		t.Fatalf("unexpected default port: %d", c.cfg.Port)
	}
	if c.tools_file != "tools.yaml" {
		t.Fatalf("unexpected default tools file: %q", c.tools_file)
	}
	if c.cfg.DisableReload {
		t.Fatalf("reload should be enabled by default")
	}
}

func TestParseToolsFile(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	in := `
	sources:
		my-mongodb:
			kind: mongodb
			credential: mongodb
			uriEnv: MONGODB_URI
	tools:
		mongodb_ping_database:
			kind: mongodb-ping
			source: my-mongodb
			description: Check connectivity to the MongoDB deployment.
		mongodb_find_document:
			kind: mongodb-find
			source: my-mongodb
			description: Find documents matching a filter.
			database: app
			collection: users
	toolsets:
		mongodb:
			- mongodb_ping_database
			- mongodb_find_document
	`
	toolsFile, err := parseToolsFile(ctx, testutils.FormatYaml(in))
	if err != nil {
		t.Fatalf("unable to parse tools file: %s", err)
	}

	wantSources := server.SourceConfigs{
		"my-mongodb": mongosrc.Config{
			Name:       "my-mongodb",
			Kind:       "mongodb",
			Credential: "mongodb",
			UriEnv:     "MONGODB_URI",
		},
	}
	if diff := cmp.Diff(wantSources, toolsFile.Sources); diff != "" {
		t.Fatalf("incorrect sources parse: diff %v", diff)
	}

	wantTools := server.ToolConfigs{
		"mongodb_ping_database": mongodbping.Config{
			Name:         "mongodb_ping_database",
			Kind:         "mongodb-ping",
			Source:       "my-mongodb",
			AuthRequired: []string{},
			Description:  "Check connectivity to the MongoDB deployment.",
		},
		"mongodb_find_document": mongodbfind.Config{
			Name:         "mongodb_find_document",
			Kind:         "mongodb-find",
			Source:       "my-mongodb",
			AuthRequired: []string{},
			Description:  "Find documents matching a filter.",
			Database:     "app",
			Collection:   "users",
		},
	}
	if diff := cmp.Diff(wantTools, toolsFile.Tools); diff != "" {
		t.Fatalf("incorrect tools parse: diff %v", diff)
	}

	wantToolsets := server.ToolsetConfigs{
		"mongodb": {Name: "mongodb", ToolNames: []string{"mongodb_ping_database", "mongodb_find_document"}},
	}
	if diff := cmp.Diff(wantToolsets, toolsFile.Toolsets); diff != "" {
		t.Fatalf("incorrect toolsets parse: diff %v", diff)
	}
}

func TestWatchedFileChanged(t *testing.T) {
	tcs := []struct {
		desc  string
		event fsnotify.Event
		want  bool
	}{
		{
			desc:  "plain save",
			event: fsnotify.Event{Name: "conf/tools.yaml", Op: fsnotify.Write},
			want:  true,
		},
		{
			desc:  "atomic save renamed over the file",
			event: fsnotify.Event{Name: "conf/tools.yaml", Op: fsnotify.Create},
			want:  true,
		},
		{
			desc:  "rename on the watched path",
			event: fsnotify.Event{Name: "conf/tools.yaml", Op: fsnotify.Rename},
			want:  true,
		},
		{
			desc:  "remove carries nothing to reload",
			event: fsnotify.Event{Name: "conf/tools.yaml", Op: fsnotify.Remove},
			want:  false,
		},
		{
			desc:  "editor temp file in the same directory",
			event: fsnotify.Event{Name: "conf/.tools.yaml.swp", Op: fsnotify.Write},
			want:  false,
		},
		{
			desc:  "unrelated sibling file",
			event: fsnotify.Event{Name: "conf/other.yaml", Op: fsnotify.Create},
			want:  false,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			if got := watchedFileChanged(tc.event, "conf/tools.yaml"); got != tc.want {
				t.Fatalf("got %t, want %t", got, tc.want)
			}
		})
	}
}

func TestParseToolsFileErrors(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	tcs := []struct {
		desc string
		in   string
	}{
		{
			desc: "unknown source kind",
			in: `
			sources:
				my-instance:
					kind: postgres
			`,
		},
		{
			desc: "unknown tool kind",
			in: `
			tools:
				my_tool:
					kind: mongodb-drop-database
					source: my-instance
					description: nope
			`,
		},
		{
			desc: "missing required field",
			in: `
			tools:
				my_tool:
					kind: mongodb-ping
					description: no source
			`,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := parseToolsFile(ctx, testutils.FormatYaml(tc.in)); err == nil {
				t.Fatalf("expected parse error")
			}
		})
	}
}
