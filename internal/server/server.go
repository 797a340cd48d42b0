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
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"go.opentelemetry.io/otel/codes"

	"github.com/mongobox/mongobox/internal/auth"
	"github.com/mongobox/mongobox/internal/log"
	"github.com/mongobox/mongobox/internal/sources"
	"github.com/mongobox/mongobox/internal/telemetry"
	"github.com/mongobox/mongobox/internal/tools"
	"github.com/mongobox/mongobox/internal/util"
)

// Server contains info for running an instance of the tool server. Should be
// instantiated with NewServer().
type Server struct {
	version         string
	srv             *http.Server
	listener        net.Listener
	root            chi.Router
	logger          log.Logger
	instrumentation *telemetry.Instrumentation

	mu           sync.RWMutex
	sources      map[string]sources.Source
	authServices map[string]auth.AuthService
	tools        map[string]tools.Tool
	toolsets     map[string]tools.Toolset
}

// SetResources swaps in a freshly initialized set of resources, used when the
// tools file is reloaded.
func (s *Server) SetResources(
	sourcesMap map[string]sources.Source,
	authServicesMap map[string]auth.AuthService,
	toolsMap map[string]tools.Tool,
	toolsetsMap map[string]tools.Toolset,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = sourcesMap
	s.authServices = authServicesMap
	s.tools = toolsMap
	s.toolsets = toolsetsMap
}

func (s *Server) tool(name string) (tools.Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

func (s *Server) toolset(name string) (tools.Toolset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.toolsets[name]
	return t, ok
}

func (s *Server) authServiceList() []auth.AuthService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]auth.AuthService, 0, len(s.authServices))
	for _, a := range s.authServices {
		list = append(list, a)
	}
	return list
}

// InitializeConfigs initializes the sources, auth services, tools, and
// toolsets described by the configuration. A default toolset with the empty
// name is created holding every tool unless the configuration declares one.
func InitializeConfigs(ctx context.Context, cfg ServerConfig) (
	map[string]sources.Source,
	map[string]auth.AuthService,
	map[string]tools.Tool,
	map[string]tools.Toolset,
	error,
) {
	instrumentation, err := util.InstrumentationFromContext(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	l, err := util.LoggerFromContext(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, span := instrumentation.Tracer.Start(ctx, "mongobox/server/init")
	defer span.End()

	// initialize and validate the sources from configs
	sourcesMap := make(map[string]sources.Source)
	for name, sc := range cfg.SourceConfigs {
		s, err := sc.Initialize(ctx, instrumentation.Tracer)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, nil, nil, nil, fmt.Errorf("unable to initialize source %q: %w", name, err)
		}
		sourcesMap[name] = s
	}
	l.InfoContext(ctx, "Initialized %d sources.", len(sourcesMap))

	// initialize and validate the auth services from configs
	authServicesMap := make(map[string]auth.AuthService)
	for name, ac := range cfg.AuthServiceConfigs {
		a, err := ac.Initialize()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, nil, nil, nil, fmt.Errorf("unable to initialize auth service %q: %w", name, err)
		}
		authServicesMap[name] = a
	}
	l.InfoContext(ctx, "Initialized %d authServices.", len(authServicesMap))

	// initialize and validate the tools from configs
	toolsMap := make(map[string]tools.Tool)
	for name, tc := range cfg.ToolConfigs {
		t, err := tc.Initialize(sourcesMap)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, nil, nil, nil, fmt.Errorf("unable to initialize tool %q: %w", name, err)
		}
		toolsMap[name] = t
	}
	l.InfoContext(ctx, "Initialized %d tools.", len(toolsMap))

	// create a default toolset that contains all tools
	toolsetConfigs := make(ToolsetConfigs, len(cfg.ToolsetConfigs)+1)
	for name, tsc := range cfg.ToolsetConfigs {
		toolsetConfigs[name] = tsc
	}
	if _, ok := toolsetConfigs[""]; !ok {
		allToolNames := make([]string, 0, len(toolsMap))
		for name := range toolsMap {
			allToolNames = append(allToolNames, name)
		}
		sort.Strings(allToolNames)
		toolsetConfigs[""] = tools.ToolsetConfig{Name: "", ToolNames: allToolNames}
	}

	// initialize and validate the toolsets from configs
	toolsetsMap := make(map[string]tools.Toolset)
	for name, tsc := range toolsetConfigs {
		t, err := tsc.Initialize(cfg.Version, toolsMap)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, nil, nil, nil, fmt.Errorf("unable to initialize toolset %q: %w", name, err)
		}
		toolsetsMap[name] = t
	}
	l.InfoContext(ctx, "Initialized %d toolsets.", len(toolsetsMap))

	return sourcesMap, authServicesMap, toolsMap, toolsetsMap, nil
}

// NewServer returns a Server object based on the provided Config.
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	instrumentation, err := util.InstrumentationFromContext(ctx)
	if err != nil {
		return nil, err
	}
	l, err := util.LoggerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	// set up http serving
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	httpOpts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}
	if cfg.LoggingFormat.String() == "json" {
		httpOpts.JSON = true
	}
	r.Use(httplog.RequestLogger(httplog.NewLogger("httplog", httpOpts)))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Hello, World!"))
	})

	sourcesMap, authServicesMap, toolsMap, toolsetsMap, err := InitializeConfigs(ctx, cfg)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))
	srv := &http.Server{Addr: addr, Handler: r}

	s := &Server{
		version:         cfg.Version,
		srv:             srv,
		root:            r,
		logger:          l,
		instrumentation: instrumentation,
		sources:         sourcesMap,
		authServices:    authServicesMap,
		tools:           toolsMap,
		toolsets:        toolsetsMap,
	}

	apiR, err := apiRouter(s)
	if err != nil {
		return nil, err
	}
	r.Mount("/api", apiR)

	mcpR, err := mcpRouter(s)
	if err != nil {
		return nil, err
	}
	r.Mount("/mcp", mcpR)

	return s, nil
}

// Listen starts a listener on the configured address.
func (s *Server) Listen(ctx context.Context) error {
	if s.listener != nil {
		return fmt.Errorf("server is already listening: %s", s.listener.Addr().String())
	}
	lc := net.ListenConfig{KeepAlive: 30 * time.Second}
	var err error
	if s.listener, err = lc.Listen(ctx, "tcp", s.srv.Addr); err != nil {
		return fmt.Errorf("failed to open listener for %q: %w", s.srv.Addr, err)
	}
	s.logger.DebugContext(ctx, "server listening on %s", s.srv.Addr)
	return nil
}

// Serve starts accepting and serving connections. Blocks until Shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.DebugContext(ctx, "server starting to serve")
	return s.srv.Serve(s.listener)
}

// Shutdown gracefully shuts down the server without interrupting any active
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.DebugContext(ctx, "shutting down the server")
	return s.srv.Shutdown(ctx)
}
