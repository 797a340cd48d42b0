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
	"context"
	"errors"
	"fmt"

	cloudmetric "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// SetupOTel bootstraps the OpenTelemetry pipeline. If it does not return an
// error, make sure to call shutdown for proper cleanup.
// Exporters are opt-in: enableGCP exports to Google Cloud Monitoring/Trace,
// a non-empty otlpURL exports over OTLP http. With neither set, providers are
// still installed so spans and metrics can be collected in-process.
func SetupOTel(ctx context.Context, versionString, otlpURL string, enableGCP bool, serviceName string) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	// shutdown calls cleanup functions registered via shutdownFuncs.
	// The errors from the calls are joined. Each registered cleanup will be
	// invoked once.
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	// Configure context propagation to use the default W3C traceparent format.
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	res, resErr := newResource(serviceName, versionString)
	if resErr != nil {
		handleErr(fmt.Errorf("unable to set up resource: %w", resErr))
		return
	}

	traceOpts := []trace.TracerProviderOption{trace.WithResource(res)}
	metricOpts := []metric.Option{metric.WithResource(res)}

	if enableGCP {
		traceExporter, expErr := cloudtrace.New()
		if expErr != nil {
			handleErr(fmt.Errorf("unable to set up Google Cloud trace exporter: %w", expErr))
			return
		}
		metricExporter, expErr := cloudmetric.New()
		if expErr != nil {
			handleErr(fmt.Errorf("unable to set up Google Cloud metric exporter: %w", expErr))
			return
		}
		traceOpts = append(traceOpts, trace.WithBatcher(traceExporter))
		metricOpts = append(metricOpts, metric.WithReader(metric.NewPeriodicReader(metricExporter)))
	}

	if otlpURL != "" {
		traceExporter, expErr := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(otlpURL))
		if expErr != nil {
			handleErr(fmt.Errorf("unable to set up OTLP trace exporter: %w", expErr))
			return
		}
		metricExporter, expErr := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(otlpURL))
		if expErr != nil {
			handleErr(fmt.Errorf("unable to set up OTLP metric exporter: %w", expErr))
			return
		}
		traceOpts = append(traceOpts, trace.WithBatcher(traceExporter))
		metricOpts = append(metricOpts, metric.WithReader(metric.NewPeriodicReader(metricExporter)))
	}

	tracerProvider := trace.NewTracerProvider(traceOpts...)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	meterProvider := metric.NewMeterProvider(metricOpts...)
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	return shutdown, nil
}

// newResource creates the default resource for telemetry data. Resource
// represents the entity producing telemetry.
func newResource(serviceName, versionString string) (*resource.Resource, error) {
	r, err := resource.New(
		context.Background(),
		resource.WithFromEnv(),      // attributes from OTEL_RESOURCE_ATTRIBUTES and OTEL_SERVICE_NAME.
		resource.WithTelemetrySDK(), // information about the OTel SDK used.
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(versionString),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to set up resource: %w", err)
	}
	return r, nil
}
