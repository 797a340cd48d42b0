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
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/mongobox/mongobox/internal/tools"
	"github.com/mongobox/mongobox/internal/util"
)

// apiRouter creates a router that represents the routes under /api
func apiRouter(s *Server) (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(middleware.StripSlashes)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/toolset", func(w http.ResponseWriter, r *http.Request) { toolsetHandler(s, w, r) })
	r.Get("/toolset/{toolsetName}", func(w http.ResponseWriter, r *http.Request) { toolsetHandler(s, w, r) })

	r.Route("/tool/{toolName}", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { toolGetHandler(s, w, r) })
		r.Post("/invoke", func(w http.ResponseWriter, r *http.Request) { toolInvokeHandler(s, w, r) })
	})

	return r, nil
}

// toolsetHandler handles the request for information about a toolset.
func toolsetHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	ctx, span := s.instrumentation.Tracer.Start(r.Context(), "mongobox/server/toolset/get")
	r = r.WithContext(ctx)

	toolsetName := chi.URLParam(r, "toolsetName")
	var err error
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		status := "success"
		if err != nil {
			status = "error"
		}
		s.instrumentation.ToolsetGet.Add(
			r.Context(),
			1,
			metric.WithAttributes(attribute.String("mongobox.toolset.name", toolsetName)),
			metric.WithAttributes(attribute.String("mongobox.operation.status", status)),
		)
	}()

	toolset, ok := s.toolset(toolsetName)
	if !ok {
		err = fmt.Errorf("toolset %q does not exist", toolsetName)
		s.logger.DebugContext(ctx, "%s", err)
		_ = render.Render(w, r, newErrResponse(err, http.StatusNotFound))
		return
	}
	render.JSON(w, r, toolset.Manifest)
}

// toolGetHandler handles the request for information about a single tool.
func toolGetHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	ctx, span := s.instrumentation.Tracer.Start(r.Context(), "mongobox/server/tool/get")
	r = r.WithContext(ctx)

	toolName := chi.URLParam(r, "toolName")
	var err error
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		status := "success"
		if err != nil {
			status = "error"
		}
		s.instrumentation.ToolGet.Add(
			r.Context(),
			1,
			metric.WithAttributes(attribute.String("mongobox.tool.name", toolName)),
			metric.WithAttributes(attribute.String("mongobox.operation.status", status)),
		)
	}()

	tool, ok := s.tool(toolName)
	if !ok {
		err = fmt.Errorf("tool %q does not exist", toolName)
		s.logger.DebugContext(ctx, "%s", err)
		_ = render.Render(w, r, newErrResponse(err, http.StatusNotFound))
		return
	}
	manifest := tools.ToolsetManifest{
		ServerVersion: s.version,
		ToolsManifest: map[string]tools.Manifest{toolName: tool.Manifest()},
	}
	render.JSON(w, r, manifest)
}

// toolInvokeHandler handles the API request to invoke a specific tool.
func toolInvokeHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	ctx, span := s.instrumentation.Tracer.Start(r.Context(), "mongobox/server/tool/invoke")
	r = r.WithContext(ctx)

	toolName := chi.URLParam(r, "toolName")
	var err error
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		status := "success"
		if err != nil {
			status = "error"
		}
		s.instrumentation.ToolInvoke.Add(
			r.Context(),
			1,
			metric.WithAttributes(attribute.String("mongobox.tool.name", toolName)),
			metric.WithAttributes(attribute.String("mongobox.operation.status", status)),
		)
	}()

	s.instrumentation.OperationActive.Add(ctx, 1)
	defer s.instrumentation.OperationActive.Add(ctx, -1)

	tool, ok := s.tool(toolName)
	if !ok {
		err = fmt.Errorf("invalid tool name: tool with name %q does not exist", toolName)
		s.logger.DebugContext(ctx, "%s", err)
		_ = render.Render(w, r, newErrResponse(err, http.StatusNotFound))
		return
	}

	// Check which of the configured auth services attached a verifiable
	// token to this request.
	verifiedAuthServices := []string{}
	claimsFromAuth := make(map[string]map[string]any)
	for _, aS := range s.authServiceList() {
		claims, claimErr := aS.GetClaimsFromHeader(ctx, r.Header)
		if claimErr != nil {
			s.logger.DebugContext(ctx, "failure getting claims from header: %s", claimErr)
			continue
		}
		if claims == nil {
			// authService not attempted
			continue
		}
		claimsFromAuth[aS.GetName()] = claims
		verifiedAuthServices = append(verifiedAuthServices, aS.GetName())
	}

	if !tool.Authorized(verifiedAuthServices) {
		err = fmt.Errorf("tool invocation not authorized; please make sure the correct auth headers are specified")
		s.logger.DebugContext(ctx, "%s", err)
		_ = render.Render(w, r, newErrResponse(err, http.StatusUnauthorized))
		return
	}

	var data map[string]any
	if err = util.DecodeJSON(r.Body, &data); err != nil {
		err = fmt.Errorf("request body was invalid JSON: %w", err)
		s.logger.DebugContext(ctx, "%s", err)
		_ = render.Render(w, r, newErrResponse(err, http.StatusBadRequest))
		return
	}

	params, err := tool.ParseParams(data, claimsFromAuth)
	if err != nil {
		err = fmt.Errorf("provided parameters were invalid: %w", err)
		s.logger.DebugContext(ctx, "%s", err)
		_ = render.Render(w, r, newErrResponse(err, http.StatusBadRequest))
		return
	}
	s.logger.DebugContext(ctx, "invocation params: %s", params)

	res, err := tool.Invoke(ctx, params)
	if err != nil {
		err = fmt.Errorf("error while invoking tool: %w", err)
		s.logger.ErrorContext(ctx, "%s", err)
		_ = render.Render(w, r, newErrResponse(err, http.StatusInternalServerError))
		return
	}

	render.JSON(w, r, map[string]any{"result": res})
}
