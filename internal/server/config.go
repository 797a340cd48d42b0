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
	"strings"

	yaml "github.com/goccy/go-yaml"

	"github.com/mongobox/mongobox/internal/auth"
	"github.com/mongobox/mongobox/internal/auth/google"
	"github.com/mongobox/mongobox/internal/sources"
	"github.com/mongobox/mongobox/internal/tools"
	"github.com/mongobox/mongobox/internal/util"
)

// ServerConfig is the configuration the server runs with.
type ServerConfig struct {
	// Version is the server version string reported in manifests.
	Version string
	// Address is the address of the interface the server will listen on.
	Address string
	// Port is the port the server will listen on.
	Port int
	// SourceConfigs defines what sources of data are available for tools.
	SourceConfigs SourceConfigs
	// AuthServiceConfigs defines what services are available to authenticate requests.
	AuthServiceConfigs AuthServiceConfigs
	// ToolConfigs defines what tools are available.
	ToolConfigs ToolConfigs
	// ToolsetConfigs defines what groups of tools are available.
	ToolsetConfigs ToolsetConfigs
	// LoggingFormat defines whether structured logging is used.
	LoggingFormat logFormat
	// LogLevel defines the minimum level to log.
	LogLevel StringLevel
	// TelemetryGCP defines whether the GCP exporter is used.
	TelemetryGCP bool
	// TelemetryOTLP defines the OTLP collector url for telemetry exports.
	TelemetryOTLP string
	// TelemetryServiceName defines the value of the service.name resource attribute.
	TelemetryServiceName string
	// DisableReload indicates dynamic reloading of the tools file is off.
	DisableReload bool
}

type logFormat string

// String is used by both fmt.Print and by Cobra in help text
func (f *logFormat) String() string {
	if string(*f) != "" {
		return strings.ToLower(string(*f))
	}
	return "standard"
}

// validate logging format flag
func (f *logFormat) Set(v string) error {
	switch strings.ToLower(v) {
	case "standard", "json":
		*f = logFormat(v)
		return nil
	default:
		return fmt.Errorf(`log format must be one of "standard", or "json"`)
	}
}

// Type is used in Cobra help text
func (f *logFormat) Type() string {
	return "logFormat"
}

type StringLevel string

// String is used by both fmt.Print and by Cobra in help text
func (s *StringLevel) String() string {
	if string(*s) != "" {
		return strings.ToLower(string(*s))
	}
	return "info"
}

// validate log level flag
func (s *StringLevel) Set(v string) error {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		*s = StringLevel(v)
		return nil
	default:
		return fmt.Errorf(`log level must be one of "debug", "info", "warn", or "error"`)
	}
}

// Type is used in Cobra help text
func (s *StringLevel) Type() string {
	return "stringLevel"
}

// SourceConfigs is a type used to allow unmarshal of the source configs map.
type SourceConfigs map[string]sources.SourceConfig

// validate interface
var _ yaml.InterfaceUnmarshalerContext = &SourceConfigs{}

func (c *SourceConfigs) UnmarshalYAML(ctx context.Context, unmarshal func(interface{}) error) error {
	*c = make(SourceConfigs)
	// Parse the 'kind' fields for each source
	var raw map[string]util.DelayedUnmarshaler
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for name, u := range raw {
		var v map[string]any
		if err := u.Unmarshal(&v); err != nil {
			return fmt.Errorf("unable to parse source %q: %w", name, err)
		}
		kind, ok := v["kind"].(string)
		if !ok {
			return fmt.Errorf("missing 'kind' field for source %q", name)
		}
		dec, err := util.NewStrictDecoder(v)
		if err != nil {
			return fmt.Errorf("error creating decoder: %w", err)
		}
		sourceConfig, err := sources.DecodeConfig(ctx, kind, name, dec)
		if err != nil {
			return err
		}
		(*c)[name] = sourceConfig
	}
	return nil
}

// AuthServiceConfigs is a type used to allow unmarshal of the auth service
// configs map.
type AuthServiceConfigs map[string]auth.AuthServiceConfig

// validate interface
var _ yaml.InterfaceUnmarshalerContext = &AuthServiceConfigs{}

func (c *AuthServiceConfigs) UnmarshalYAML(ctx context.Context, unmarshal func(interface{}) error) error {
	*c = make(AuthServiceConfigs)
	// Parse the 'kind' fields for each auth service
	var raw map[string]util.DelayedUnmarshaler
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for name, u := range raw {
		var v map[string]any
		if err := u.Unmarshal(&v); err != nil {
			return fmt.Errorf("unable to parse auth service %q: %w", name, err)
		}
		kind, ok := v["kind"].(string)
		if !ok {
			return fmt.Errorf("missing 'kind' field for auth service %q", name)
		}
		switch kind {
		case google.AuthServiceKind:
			dec, err := util.NewStrictDecoder(v)
			if err != nil {
				return fmt.Errorf("error creating decoder: %w", err)
			}
			actual := google.Config{Name: name}
			if err := dec.DecodeContext(ctx, &actual); err != nil {
				return fmt.Errorf("unable to parse auth service %q as %q: %w", name, kind, err)
			}
			(*c)[name] = actual
		default:
			return fmt.Errorf("%q is not a valid kind of auth service", kind)
		}
	}
	return nil
}

// ToolConfigs is a type used to allow unmarshal of the tool configs map.
type ToolConfigs map[string]tools.ToolConfig

// validate interface
var _ yaml.InterfaceUnmarshalerContext = &ToolConfigs{}

func (c *ToolConfigs) UnmarshalYAML(ctx context.Context, unmarshal func(interface{}) error) error {
	*c = make(ToolConfigs)
	// Parse the 'kind' fields for each tool
	var raw map[string]util.DelayedUnmarshaler
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for name, u := range raw {
		var v map[string]any
		if err := u.Unmarshal(&v); err != nil {
			return fmt.Errorf("unable to parse tool %q: %w", name, err)
		}
		kind, ok := v["kind"].(string)
		if !ok {
			return fmt.Errorf("missing 'kind' field for tool %q", name)
		}
		// Make `authRequired` an empty list instead of nil for the manifest
		if v["authRequired"] == nil {
			v["authRequired"] = []string{}
		}
		dec, err := util.NewStrictDecoder(v)
		if err != nil {
			return fmt.Errorf("error creating decoder: %w", err)
		}
		toolConfig, err := tools.DecodeConfig(ctx, kind, name, dec)
		if err != nil {
			return err
		}
		(*c)[name] = toolConfig
	}
	return nil
}

// ToolsetConfigs is a type used to allow unmarshal of the toolset configs map.
type ToolsetConfigs map[string]tools.ToolsetConfig

// validate interface
var _ yaml.InterfaceUnmarshalerContext = &ToolsetConfigs{}

func (c *ToolsetConfigs) UnmarshalYAML(ctx context.Context, unmarshal func(interface{}) error) error {
	*c = make(ToolsetConfigs)

	var raw map[string][]string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for name, toolList := range raw {
		(*c)[name] = tools.ToolsetConfig{Name: name, ToolNames: toolList}
	}
	return nil
}
