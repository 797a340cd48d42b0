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
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/mongobox/mongobox/internal/server/mcp"
	"github.com/mongobox/mongobox/internal/util"
)

// mcpRouter creates a router that represents the routes under /mcp
func mcpRouter(s *Server) (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(middleware.AllowContentType("application/json"))
	r.Use(middleware.StripSlashes)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", func(w http.ResponseWriter, r *http.Request) { mcpHandler(s, w, r) })

	return r, nil
}

// mcpHandler handles all mcp messages.
func mcpHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	ctx, span := s.instrumentation.Tracer.Start(r.Context(), "mongobox/server/mcp")
	r = r.WithContext(ctx)
	defer span.End()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		// Generate a new uuid if unable to decode
		id := uuid.New().String()
		span.SetStatus(codes.Error, err.Error())
		render.JSON(w, r, newJSONRPCError(id, mcp.PARSE_ERROR, err.Error(), nil))
		return
	}

	// Generic baseMessage could either be a JSONRPCNotification or JSONRPCRequest
	var baseMessage struct {
		Jsonrpc string        `json:"jsonrpc"`
		Method  string        `json:"method"`
		Id      mcp.RequestId `json:"id,omitempty"`
	}
	if err := util.DecodeJSON(bytes.NewBuffer(body), &baseMessage); err != nil {
		// Generate a new uuid if unable to decode
		id := uuid.New().String()
		span.SetStatus(codes.Error, err.Error())
		render.JSON(w, r, newJSONRPCError(id, mcp.PARSE_ERROR, err.Error(), nil))
		return
	}

	// Check if method is present
	if baseMessage.Method == "" {
		err := fmt.Errorf("method not found")
		span.SetStatus(codes.Error, err.Error())
		render.JSON(w, r, newJSONRPCError(baseMessage.Id, mcp.METHOD_NOT_FOUND, err.Error(), nil))
		return
	}

	// Check for JSON-RPC 2.0
	if baseMessage.Jsonrpc != mcp.JSONRPC_VERSION {
		err := fmt.Errorf("invalid json-rpc version")
		span.SetStatus(codes.Error, err.Error())
		render.JSON(w, r, newJSONRPCError(baseMessage.Id, mcp.INVALID_REQUEST, err.Error(), nil))
		return
	}

	// Check if message is a notification
	if baseMessage.Id == nil {
		var notification mcp.JSONRPCNotification
		if err := json.Unmarshal(body, &notification); err != nil {
			span.SetStatus(codes.Error, err.Error())
			render.JSON(w, r, newJSONRPCError(baseMessage.Id, mcp.PARSE_ERROR, err.Error(), nil))
		}
		// Notifications do not expect a response
		return
	}

	var res mcp.JSONRPCMessage
	switch baseMessage.Method {
	case "initialize":
		var req mcp.InitializeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			res = newJSONRPCError(baseMessage.Id, mcp.INVALID_REQUEST, fmt.Sprintf("invalid mcp initialize request: %s", err), nil)
			break
		}
		result := mcp.Initialize(s.version)
		res = mcp.JSONRPCResponse{
			Jsonrpc: mcp.JSONRPC_VERSION,
			Id:      baseMessage.Id,
			Result:  result,
		}
	case "tools/list":
		var req mcp.ListToolsRequest
		if err := json.Unmarshal(body, &req); err != nil {
			res = newJSONRPCError(baseMessage.Id, mcp.INVALID_REQUEST, fmt.Sprintf("invalid mcp tools list request: %s", err), nil)
			break
		}
		toolset, ok := s.toolset("")
		if !ok {
			res = newJSONRPCError(baseMessage.Id, mcp.INVALID_REQUEST, "toolset does not exist", nil)
			break
		}
		result := mcp.ToolsList(toolset)
		res = mcp.JSONRPCResponse{
			Jsonrpc: mcp.JSONRPC_VERSION,
			Id:      baseMessage.Id,
			Result:  result,
		}
	case "tools/call":
		var req mcp.CallToolRequest
		if err := json.Unmarshal(body, &req); err != nil {
			res = newJSONRPCError(baseMessage.Id, mcp.INVALID_REQUEST, fmt.Sprintf("invalid mcp tools call request: %s", err), nil)
			break
		}
		res = mcpToolsCall(s, r, baseMessage.Id, req)
	default:
		res = newJSONRPCError(baseMessage.Id, mcp.METHOD_NOT_FOUND, fmt.Sprintf("invalid method %s", baseMessage.Method), nil)
	}

	render.JSON(w, r, res)
}

// mcpToolsCall invokes the named tool with the request arguments and wraps
// the envelope as MCP text content.
func mcpToolsCall(s *Server, r *http.Request, id mcp.RequestId, req mcp.CallToolRequest) mcp.JSONRPCMessage {
	ctx := r.Context()
	toolName := req.Params.Name

	var err error
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.instrumentation.ToolInvoke.Add(
			ctx,
			1,
			metric.WithAttributes(attribute.String("mongobox.tool.name", toolName)),
			metric.WithAttributes(attribute.String("mongobox.operation.status", status)),
		)
	}()

	tool, ok := s.tool(toolName)
	if !ok {
		err = fmt.Errorf("invalid tool name: tool with name %q does not exist", toolName)
		return newJSONRPCError(id, mcp.INVALID_PARAMS, err.Error(), nil)
	}

	verifiedAuthServices := []string{}
	claimsFromAuth := make(map[string]map[string]any)
	for _, aS := range s.authServiceList() {
		claims, claimErr := aS.GetClaimsFromHeader(ctx, r.Header)
		if claimErr != nil {
			s.logger.DebugContext(ctx, "failure getting claims from header: %s", claimErr)
			continue
		}
		if claims == nil {
			continue
		}
		claimsFromAuth[aS.GetName()] = claims
		verifiedAuthServices = append(verifiedAuthServices, aS.GetName())
	}
	if !tool.Authorized(verifiedAuthServices) {
		err = fmt.Errorf("unauthorized tool call: please make sure the correct auth headers are specified")
		return newJSONRPCError(id, mcp.INVALID_REQUEST, err.Error(), nil)
	}

	arguments := req.Params.Arguments
	if arguments == nil {
		arguments = map[string]any{}
	}
	params, err := tool.ParseParams(arguments, claimsFromAuth)
	if err != nil {
		err = fmt.Errorf("provided parameters were invalid: %w", err)
		return newJSONRPCError(id, mcp.INVALID_PARAMS, err.Error(), nil)
	}
	s.logger.DebugContext(ctx, "invocation params: %s", params)

	result, err := tool.Invoke(ctx, params)
	if err != nil {
		err = fmt.Errorf("error while invoking tool: %w", err)
		return newJSONRPCError(id, mcp.INTERNAL_ERROR, err.Error(), nil)
	}

	text, err := json.Marshal(result)
	if err != nil {
		err = fmt.Errorf("unable to marshal tool result: %w", err)
		return newJSONRPCError(id, mcp.INTERNAL_ERROR, err.Error(), nil)
	}

	return mcp.JSONRPCResponse{
		Jsonrpc: mcp.JSONRPC_VERSION,
		Id:      id,
		Result: mcp.CallToolResult{
			Content: []mcp.TextContent{{Type: "text", Text: string(text)}},
		},
	}
}

// newJSONRPCError is the response sent back when an error has been
// encountered in mcp.
func newJSONRPCError(id mcp.RequestId, code int, message string, data any) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		Jsonrpc: mcp.JSONRPC_VERSION,
		Id:      id,
		Error: mcp.McpError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
