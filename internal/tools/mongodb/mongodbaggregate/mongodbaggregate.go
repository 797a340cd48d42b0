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

package mongodbaggregate

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mongobox/mongobox/internal/sources"
	mongosrc "github.com/mongobox/mongobox/internal/sources/mongodb"
	"github.com/mongobox/mongobox/internal/tools"
	"github.com/mongobox/mongobox/internal/tools/mongodb"
)

const kind string = "mongodb-aggregate"

func init() {
	if !tools.Register(kind, newConfig) {
		panic(fmt.Sprintf("tool kind %q already registered", kind))
	}
}

func newConfig(ctx context.Context, name string, decoder *yaml.Decoder) (tools.ToolConfig, error) {
	actual := Config{Name: name}
	if err := decoder.DecodeContext(ctx, &actual); err != nil {
		return nil, err
	}
	return actual, nil
}

type Config struct {
	Name         string   `yaml:"name" validate:"required"`
	Kind         string   `yaml:"kind" validate:"required"`
	Source       string   `yaml:"source" validate:"required"`
	AuthRequired []string `yaml:"authRequired"`
	Description  string   `yaml:"description" validate:"required"`
	Database     string   `yaml:"database"`
	Collection   string   `yaml:"collection"`
}

// validate interface
var _ tools.ToolConfig = Config{}

func (cfg Config) ToolConfigKind() string {
	return kind
}

func (cfg Config) Initialize(srcs map[string]sources.Source) (tools.Tool, error) {
	// verify source exists
	rawS, ok := srcs[cfg.Source]
	if !ok {
		return nil, fmt.Errorf("no source named %q configured", cfg.Source)
	}

	// verify the source is compatible
	s, ok := rawS.(*mongosrc.Source)
	if !ok {
		return nil, fmt.Errorf("invalid source for %q tool: source kind must be `mongodb`", kind)
	}

	allParams := mongodb.DatabaseCollectionParams(cfg.Database, cfg.Collection)
	allParams = append(allParams,
		tools.NewStringParameter("pipeline_json",
			`JSON string representing an array of aggregation stages (e.g., '[{"$match": {"status": "active"}}, {"$group": {"_id": "$type", "total": {"$sum": 1}}}]').`),
	)
	if err := tools.CheckDuplicateParameters(allParams); err != nil {
		return nil, err
	}

	paramManifest := allParams.Manifest()
	mcpManifest := tools.GetMcpManifest(cfg.Name, cfg.Description, allParams)

	return Tool{
		Name:         cfg.Name,
		Kind:         kind,
		Description:  cfg.Description,
		AuthRequired: cfg.AuthRequired,
		Database:     cfg.Database,
		Collection:   cfg.Collection,
		AllParams:    allParams,
		source:       s,
		manifest:     tools.Manifest{Description: cfg.Description, Parameters: paramManifest, AuthRequired: cfg.AuthRequired},
		mcpManifest:  mcpManifest,
	}, nil
}

// validate interface
var _ tools.Tool = Tool{}

type Tool struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	Description  string `yaml:"description"`
	AuthRequired []string
	Database     string
	Collection   string
	AllParams    tools.Parameters

	source      *mongosrc.Source
	manifest    tools.Manifest
	mcpManifest tools.McpManifest
}

// Invoke runs the aggregation pipeline. The decoded pipeline must be a JSON
// array; a top-level object is rejected before touching the driver.
func (t Tool) Invoke(ctx context.Context, params tools.ParamValues) (any, error) {
	paramsMap := params.AsMap()

	database, err := mongodb.ResolveName(paramsMap, "database", t.Database)
	if err != nil {
		return nil, err
	}
	collection, err := mongodb.ResolveName(paramsMap, "collection", t.Collection)
	if err != nil {
		return nil, err
	}

	pipelineJSON, _ := paramsMap["pipeline_json"].(string)
	decoded, err := mongodb.DecodeJSONString(pipelineJSON)
	if err != nil {
		return mongodb.InvalidJSONEnvelope("pipeline_json"), nil
	}
	pipeline, ok := decoded.([]any)
	if !ok {
		return mongodb.ErrorEnvelope("Pipeline must be a JSON array of aggregation stages."), nil
	}

	client, err := t.source.Client(ctx)
	if err != nil {
		return mongodb.ConnectionErrorEnvelope(err), nil
	}

	cursor, err := client.Database(database).Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return mongodb.ErrorEnvelope("Database aggregation error: %s", err), nil
	}

	var documents []bson.M
	if err := cursor.All(ctx, &documents); err != nil {
		return mongodb.ErrorEnvelope("Database aggregation error: %s", err), nil
	}
	documents = mongodb.SerializeDocuments(documents)

	return map[string]any{
		"success": true,
		"count":   len(documents),
		"data":    documents,
	}, nil
}

func (t Tool) ParseParams(data map[string]any, claims map[string]map[string]any) (tools.ParamValues, error) {
	return tools.ParseParams(t.AllParams, data, claims)
}

func (t Tool) Manifest() tools.Manifest {
	return t.manifest
}

func (t Tool) McpManifest() tools.McpManifest {
	return t.mcpManifest
}

func (t Tool) Authorized(verifiedAuthServices []string) bool {
	return tools.IsAuthorized(t.AuthRequired, verifiedAuthServices)
}
