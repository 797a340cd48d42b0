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

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// InstrumentationName is the scope name used for the server's tracer and meter.
	InstrumentationName = "github.com/mongobox/mongobox/internal/telemetry"

	toolsetGetCountName = "mongobox.server.toolset.get.count"
	toolGetCountName    = "mongobox.server.tool.get.count"
	toolInvokeCountName = "mongobox.server.tool.invoke.count"
	operationActiveName = "mongobox.server.operation.active"
)

// Instrumentation bundles the tracer and custom metrics used by the server.
type Instrumentation struct {
	Tracer          trace.Tracer
	ToolsetGet      metric.Int64Counter
	ToolGet         metric.Int64Counter
	ToolInvoke      metric.Int64Counter
	OperationActive metric.Int64UpDownCounter
}

// CreateTelemetryInstrumentation creates the tracer and all custom metrics
// for the server.
func CreateTelemetryInstrumentation(versionString string) (*Instrumentation, error) {
	tracer := otel.Tracer(InstrumentationName, trace.WithInstrumentationVersion(versionString))
	meter := otel.Meter(InstrumentationName, metric.WithInstrumentationVersion(versionString))

	toolsetGetCounter, err := meter.Int64Counter(
		toolsetGetCountName,
		metric.WithDescription("Number of toolset GET API calls."),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s metric: %w", toolsetGetCountName, err)
	}

	toolGetCounter, err := meter.Int64Counter(
		toolGetCountName,
		metric.WithDescription("Number of tool GET API calls."),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s metric: %w", toolGetCountName, err)
	}

	toolInvokeCounter, err := meter.Int64Counter(
		toolInvokeCountName,
		metric.WithDescription("Number of tool Invoke API calls."),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s metric: %w", toolInvokeCountName, err)
	}

	operationActiveCounter, err := meter.Int64UpDownCounter(
		operationActiveName,
		metric.WithDescription("Number of active requests."),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s metric: %w", operationActiveName, err)
	}

	return &Instrumentation{
		Tracer:          tracer,
		ToolsetGet:      toolsetGetCounter,
		ToolGet:         toolGetCounter,
		ToolInvoke:      toolInvokeCounter,
		OperationActive: operationActiveCounter,
	}, nil
}
