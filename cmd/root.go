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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/mongobox/mongobox/internal/log"
	"github.com/mongobox/mongobox/internal/server"
	"github.com/mongobox/mongobox/internal/telemetry"
	"github.com/mongobox/mongobox/internal/util"

	// register source and tool kinds
	_ "github.com/mongobox/mongobox/internal/sources/mongodb"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodbaggregate"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodbcount"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodbdeleteone"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodbfind"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodbinsertone"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodblistcollections"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodbping"
	_ "github.com/mongobox/mongobox/internal/tools/mongodb/mongodbupdateone"
)

// versionString is updated by the release process.
var versionString = "0.1.0"

// Command is the top-level command for the server CLI.
type Command struct {
	*cobra.Command

	cfg        server.ServerConfig
	logger     log.Logger
	tools_file string

	outStream, errStream io.Writer
}

// NewCommand returns a Command object representing an invocation of the CLI.
func NewCommand(opts ...Option) *Command {
	c := &Command{
		Command: &cobra.Command{
			Use:           "mongobox",
			Short:         "MongoDB tool server for agent frameworks",
			SilenceErrors: true,
		},
		outStream: os.Stdout,
		errStream: os.Stderr,
	}

	for _, opt := range opts {
		opt(c)
	}
	c.Command.SetOut(c.outStream)
	c.Command.SetErr(c.errStream)

	c.Command.Version = versionString
	c.cfg.Version = versionString

	flags := c.Flags()
	flags.StringVar(&c.tools_file, "tools-file", "tools.yaml", "File path specifying the tool configuration.")
	flags.StringVarP(&c.cfg.Address, "address", "a", "127.0.0.1", "Address of the interface the server will listen on.")
	flags.IntVarP(&c.cfg.Port, "port", "p", 5000, "Port the server will listen on.")
	flags.Var(&c.cfg.LogLevel, "log-level", "Specify the minimum level logged. Allowed: 'DEBUG', 'INFO', 'WARN', 'ERROR'.")
	flags.Var(&c.cfg.LoggingFormat, "logging-format", "Specify logging format to use. Allowed: 'standard' or 'JSON'.")
	flags.BoolVar(&c.cfg.TelemetryGCP, "telemetry-gcp", false, "Enable exporting directly to Google Cloud Monitoring.")
	flags.StringVar(&c.cfg.TelemetryOTLP, "telemetry-otlp", "", "Enable exporting using OpenTelemetry Protocol (OTLP) to the specified endpoint (e.g. 'http://127.0.0.1:4318')")
	flags.StringVar(&c.cfg.TelemetryServiceName, "telemetry-service-name", "mongobox", "Sets the value of the service.name resource attribute for telemetry data.")
	flags.BoolVar(&c.cfg.DisableReload, "disable-reload", false, "Disables dynamic reloading of the tools file.")

	c.AddCommand(newCredentialsCmd(c))

	c.RunE = func(*cobra.Command, []string) error {
		return run(c)
	}

	return c
}

// Option is a function that configures a Command.
type Option func(*Command)

// WithStreams overrides the output and error streams, used for testing.
func WithStreams(out, err io.Writer) Option {
	return func(c *Command) {
		c.outStream = out
		c.errStream = err
	}
}

// ToolsFile is the parsed representation of the tools file.
type ToolsFile struct {
	Sources      server.SourceConfigs      `yaml:"sources"`
	AuthServices server.AuthServiceConfigs `yaml:"authServices"`
	Tools        server.ToolConfigs        `yaml:"tools"`
	Toolsets     server.ToolsetConfigs     `yaml:"toolsets"`
}

// parseToolsFile parses the provided yaml into appropriate configs.
func parseToolsFile(ctx context.Context, raw []byte) (ToolsFile, error) {
	var toolsFile ToolsFile
	if err := yaml.UnmarshalContext(ctx, raw, &toolsFile, yaml.Strict()); err != nil {
		return toolsFile, err
	}
	return toolsFile, nil
}

func run(cmd *Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// watch for sigterm / sigint signal
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx = signalCtx

	// Set up logging
	switch strings.ToLower(cmd.cfg.LoggingFormat.String()) {
	case "json":
		logger, err := log.NewStructuredLogger(cmd.outStream, cmd.errStream, cmd.cfg.LogLevel.String())
		if err != nil {
			return fmt.Errorf("unable to initialize logger: %w", err)
		}
		cmd.logger = logger
	case "standard":
		logger, err := log.NewStdLogger(cmd.outStream, cmd.errStream, cmd.cfg.LogLevel.String())
		if err != nil {
			return fmt.Errorf("unable to initialize logger: %w", err)
		}
		cmd.logger = logger
	default:
		return fmt.Errorf("logging format invalid")
	}
	ctx = util.WithLogger(ctx, cmd.logger)
	ctx = util.WithUserAgent(ctx, versionString)

	// Set up telemetry
	otelShutdown, err := telemetry.SetupOTel(ctx, versionString, cmd.cfg.TelemetryOTLP, cmd.cfg.TelemetryGCP, cmd.cfg.TelemetryServiceName)
	if err != nil {
		errMsg := fmt.Errorf("error setting up OpenTelemetry: %w", err)
		cmd.logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			errMsg := fmt.Errorf("error shutting down OpenTelemetry: %w", err)
			cmd.logger.ErrorContext(ctx, errMsg.Error())
		}
	}()

	instrumentation, err := telemetry.CreateTelemetryInstrumentation(versionString)
	if err != nil {
		errMsg := fmt.Errorf("unable to create telemetry instrumentation: %w", err)
		cmd.logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}
	ctx = util.WithInstrumentation(ctx, instrumentation)

	// Read the tool file contents
	buf, err := os.ReadFile(cmd.tools_file)
	if err != nil {
		errMsg := fmt.Errorf("unable to read tool file at %q: %w", cmd.tools_file, err)
		cmd.logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}
	toolsFile, err := parseToolsFile(ctx, buf)
	if err != nil {
		errMsg := fmt.Errorf("unable to parse tool file at %q: %w", cmd.tools_file, err)
		cmd.logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}
	cmd.cfg.SourceConfigs = toolsFile.Sources
	cmd.cfg.AuthServiceConfigs = toolsFile.AuthServices
	cmd.cfg.ToolConfigs = toolsFile.Tools
	cmd.cfg.ToolsetConfigs = toolsFile.Toolsets

	// run server
	s, err := server.NewServer(ctx, cmd.cfg)
	if err != nil {
		errMsg := fmt.Errorf("unable to initialize server: %w", err)
		cmd.logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}

	if err := s.Listen(ctx); err != nil {
		errMsg := fmt.Errorf("unable to start listener: %w", err)
		cmd.logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}

	if !cmd.cfg.DisableReload {
		go watchToolsFile(ctx, cmd, s)
	}

	srvErr := make(chan error)
	go func() {
		defer close(srvErr)
		if err := s.Serve(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	cmd.logger.InfoContext(ctx, "Server ready to serve!")

	select {
	case err := <-srvErr:
		if err != nil {
			errMsg := fmt.Errorf("error while serving: %w", err)
			cmd.logger.ErrorContext(ctx, errMsg.Error())
			return errMsg
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cmd.logger.WarnContext(shutdownCtx, "shutting down gracefully...")
		if err := s.Shutdown(shutdownCtx); err != nil {
			cmd.logger.ErrorContext(shutdownCtx, "graceful shutdown failed: %s", err)
		}
	}

	return nil
}

// watchToolsFile reloads the server's resources whenever the tools file
// changes on disk. The watch is placed on the parent directory rather than
// the file itself: atomic-save editors write a temp file and rename it over
// the target, which would drop a per-file watch. A failed reload leaves the
// previous resources serving.
func watchToolsFile(ctx context.Context, cmd *Command, s *server.Server) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cmd.logger.ErrorContext(ctx, "unable to watch tools file: %s", err)
		return
	}
	defer watcher.Close()

	watchDir := filepath.Dir(cmd.tools_file)
	if err := watcher.Add(watchDir); err != nil {
		cmd.logger.ErrorContext(ctx, "unable to watch directory %q: %s", watchDir, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !watchedFileChanged(event, cmd.tools_file) {
				continue
			}
			cmd.logger.InfoContext(ctx, "tools file %q changed, reloading", cmd.tools_file)
			if err := reloadToolsFile(ctx, cmd, s); err != nil {
				cmd.logger.ErrorContext(ctx, "reload failed, keeping previous configuration: %s", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cmd.logger.ErrorContext(ctx, "tools file watcher error: %s", err)
		}
	}
}

// watchedFileChanged reports whether a directory event carries new content
// for the tools file. A plain save arrives as Write; a rename-over save
// arrives as Create or Rename on the target path. Remove alone carries no
// content to reload.
func watchedFileChanged(event fsnotify.Event, toolsFile string) bool {
	if filepath.Clean(event.Name) != filepath.Clean(toolsFile) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

func reloadToolsFile(ctx context.Context, cmd *Command, s *server.Server) error {
	buf, err := os.ReadFile(cmd.tools_file)
	if err != nil {
		return fmt.Errorf("unable to read tool file at %q: %w", cmd.tools_file, err)
	}
	toolsFile, err := parseToolsFile(ctx, buf)
	if err != nil {
		return fmt.Errorf("unable to parse tool file at %q: %w", cmd.tools_file, err)
	}

	cfg := cmd.cfg
	cfg.SourceConfigs = toolsFile.Sources
	cfg.AuthServiceConfigs = toolsFile.AuthServices
	cfg.ToolConfigs = toolsFile.Tools
	cfg.ToolsetConfigs = toolsFile.Toolsets

	sourcesMap, authServicesMap, toolsMap, toolsetsMap, err := server.InitializeConfigs(ctx, cfg)
	if err != nil {
		return err
	}
	s.SetResources(sourcesMap, authServicesMap, toolsMap, toolsetsMap)
	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := NewCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
