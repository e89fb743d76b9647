package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

type Exporter string

const (
	// ExporterNone installs only the propagator. Spans go to the global no-op provider.
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

var ErrUnknownExporter = errors.New("unknown otel exporter")

// ExporterFor picks the exporter the server uses for its logging config.
func ExporterFor(useOTLP bool) Exporter {
	if useOTLP {
		return ExporterOTLP
	}
	return ExporterStdout
}

// SetupOTelSDK bootstraps the OpenTelemetry pipeline.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func SetupOTelSDK(
	ctx context.Context,
	exporter Exporter,
	serviceName string,
) (func(context.Context) error, error) {
	var shutdownFuncs []func(context.Context) error

	// Each registered cleanup is invoked once; errors are joined.
	shutdown := func(ctx context.Context) error {
		var er error
		for _, fn := range shutdownFuncs {
			er = errors.Join(er, fn(ctx))
		}
		shutdownFuncs = nil
		return er
	}

	handleErr := func(inErr error) error {
		return errors.Join(inErr, shutdown(ctx))
	}

	switch exporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return shutdown, fmt.Errorf("%w: %q", ErrUnknownExporter, exporter)
	}

	otel.SetTextMapPropagator(newPropagator())

	if exporter == ExporterNone {
		return shutdown, nil
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	tracerProvider, err := newTracerProvider(ctx, exporter, res)
	if err != nil {
		return shutdown, handleErr(err)
	}
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMeterProvider(ctx, exporter, res)
	if err != nil {
		return shutdown, handleErr(err)
	}
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	loggerProvider, err := newLoggerProvider(ctx, exporter, res)
	if err != nil {
		return shutdown, handleErr(err)
	}
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return shutdown, nil
}

//nolint:ireturn // no control over otel's propagator interface return.
func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

func newTracerProvider(ctx context.Context, exporter Exporter, res *resource.Resource) (*trace.TracerProvider, error) {
	var err error
	var traceExporter trace.SpanExporter

	if exporter == ExporterOTLP {
		traceExporter, err = otlptracegrpc.New(ctx)
	} else {
		traceExporter, err = stdouttrace.New()
	}
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, exporter Exporter, res *resource.Resource) (*metric.MeterProvider, error) {
	var err error
	var metricExporter metric.Exporter

	if exporter == ExporterOTLP {
		metricExporter, err = otlpmetricgrpc.New(ctx)
	} else {
		metricExporter, err = stdoutmetric.New()
	}
	if err != nil {
		return nil, err
	}

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
		metric.WithResource(res),
	), nil
}

func newLoggerProvider(ctx context.Context, exporter Exporter, res *resource.Resource) (*log.LoggerProvider, error) {
	var err error
	var logExporter log.Exporter

	if exporter == ExporterOTLP {
		logExporter, err = otlploggrpc.New(ctx)
	} else {
		logExporter, err = stdoutlog.New()
	}
	if err != nil {
		return nil, err
	}

	return log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(logExporter)),
		log.WithResource(res),
	), nil
}
