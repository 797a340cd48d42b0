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

package mcp

import "github.com/mongobox/mongobox/internal/tools"

// Initialize answers the client handshake with the protocol version and
// server identity. The tool list is fixed per resource load, so listChanged
// notifications are not advertised.
func Initialize(version string) InitializeResult {
	listChanged := false
	return InitializeResult{
		ProtocolVersion: LATEST_PROTOCOL_VERSION,
		Capabilities: ServerCapabilities{
			Tools: &ListChanged{ListChanged: &listChanged},
		},
		ServerInfo: Implementation{Name: SERVER_NAME, Version: version},
	}
}

// ToolsList exposes the toolset's tools as MCP manifests.
func ToolsList(toolset tools.Toolset) ListToolsResult {
	return ListToolsResult{Tools: toolset.McpManifest}
}
