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

package tools

import "fmt"

// ToolsetConfig is the configuration of a named group of tools.
type ToolsetConfig struct {
	Name      string   `yaml:"name"`
	ToolNames []string `yaml:"toolNames"`
}

// ToolsetManifest is the representation of a toolset sent to Client SDKs.
type ToolsetManifest struct {
	ServerVersion string              `json:"serverVersion"`
	ToolsManifest map[string]Manifest `json:"tools"`
}

// Toolset is an initialized group of tools with pre-rendered manifests.
type Toolset struct {
	Name        string `yaml:"name"`
	Tools       []Tool
	ToolNames   []string
	Manifest    ToolsetManifest
	McpManifest []McpManifest
}

// Initialize resolves the toolset's tool names against the initialized tools
// and renders its manifests.
func (t ToolsetConfig) Initialize(serverVersion string, toolsMap map[string]Tool) (Toolset, error) {
	var toolset Toolset

	toolsManifest := make(map[string]Manifest, len(t.ToolNames))
	mcpManifest := make([]McpManifest, 0, len(t.ToolNames))
	toolList := make([]Tool, 0, len(t.ToolNames))
	for _, name := range t.ToolNames {
		tool, ok := toolsMap[name]
		if !ok {
			return toolset, fmt.Errorf("toolset %q: tool %q does not exist", t.Name, name)
		}
		toolList = append(toolList, tool)
		toolsManifest[name] = tool.Manifest()
		mcpManifest = append(mcpManifest, tool.McpManifest())
	}

	toolset = Toolset{
		Name:      t.Name,
		Tools:     toolList,
		ToolNames: t.ToolNames,
		Manifest: ToolsetManifest{
			ServerVersion: serverVersion,
			ToolsManifest: toolsManifest,
		},
		McpManifest: mcpManifest,
	}
	return toolset, nil
}
