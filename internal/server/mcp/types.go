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

// Package mcp implements the Model Context Protocol message types and method
// handlers the server exposes over the /mcp endpoint.
package mcp

import "github.com/mongobox/mongobox/internal/tools"

const (
	JSONRPC_VERSION         = "2.0"
	LATEST_PROTOCOL_VERSION = "2024-11-05"
	SERVER_NAME             = "Mongobox"
)

// Standard JSON-RPC error codes.
const (
	PARSE_ERROR      = -32700
	INVALID_REQUEST  = -32600
	METHOD_NOT_FOUND = -32601
	INVALID_PARAMS   = -32602
	INTERNAL_ERROR   = -32603
)

// JSONRPCMessage represents either a JSONRPCResponse or a JSONRPCError.
type JSONRPCMessage any

// RequestId is a uniquely identifying ID for a request in JSON-RPC. It can be
// any JSON-serializable value, typically a number or string.
type RequestId any

// Request is the base shape of a JSON-RPC request.
type Request struct {
	Method string `json:"method"`
}

// JSONRPCRequest is a request that expects a response.
type JSONRPCRequest struct {
	Jsonrpc string    `json:"jsonrpc"`
	Id      RequestId `json:"id,omitempty"`
	Request
}

// Notification is a message that does not expect a response.
type Notification struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// JSONRPCNotification is a notification message in JSON-RPC framing.
type JSONRPCNotification struct {
	Jsonrpc string `json:"jsonrpc"`
	Notification
}

// JSONRPCResponse is a successful (non-error) response to a request.
type JSONRPCResponse struct {
	Jsonrpc string    `json:"jsonrpc"`
	Id      RequestId `json:"id,omitempty"`
	Result  any       `json:"result"`
}

// JSONRPCError is a response indicating an error occurred.
type JSONRPCError struct {
	Jsonrpc string    `json:"jsonrpc"`
	Id      RequestId `json:"id,omitempty"`
	Error   McpError  `json:"error"`
}

// McpError is the error payload of a JSONRPCError.
type McpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Implementation describes the name and version of an MCP implementation.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ListChanged indicates whether the server will emit notifications when the
// list of available tools changes.
type ListChanged struct {
	ListChanged *bool `json:"listChanged,omitempty"`
}

// ServerCapabilities advertises the capabilities the server supports.
type ServerCapabilities struct {
	Tools *ListChanged `json:"tools,omitempty"`
}

// InitializeRequest is sent from the client to the server when it first
// connects.
type InitializeRequest struct {
	Request
	Params InitializeParams `json:"params"`
}

// InitializeParams carries the client half of the initialize handshake.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      Implementation `json:"clientInfo"`
}

// InitializeResult is the server's response to an initialize request.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// ListToolsRequest is sent from the client to request a list of tools the
// server has.
type ListToolsRequest struct {
	Request
}

// ListToolsResult is the server's response to a tools/list request.
type ListToolsResult struct {
	Tools []tools.McpManifest `json:"tools"`
}

// CallToolRequest is used by the client to invoke a tool provided by the
// server.
type CallToolRequest struct {
	Request
	Params CallToolParams `json:"params"`
}

// CallToolParams names the tool to invoke and its arguments.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// TextContent is text provided to or from an LLM.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the server's response to a tools/call request.
type CallToolResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}
