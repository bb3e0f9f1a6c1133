package tracesvc

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

// Init installs the global tracer provider. With tracing disabled it installs nothing and the
// returned shutdown func is a no-op; with no endpoint spans are written to stdout.
func Init(ctx context.Context, conf *core.Config) (shutdown func(context.Context) error, err error) {
	shutdown = func(context.Context) error { return nil }
	if !conf.Tracing.Enabled {
		return shutdown, nil
	}

	var exporter sdktrace.SpanExporter
	if conf.Tracing.Endpoint != "" {
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(conf.Tracing.Endpoint))
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return shutdown, errors.Wrap(err, "creating span exporter")
	}

	res, err := sdkresource.New(
		ctx,
		sdkresource.WithAttributes(
			semconv.ServiceNameKey.String(conf.Tracing.ServiceName),
			semconv.ServiceVersionKey.String(conf.Build),
			attribute.String("deployment.environment", conf.Env),
		),
	)
	if err != nil {
		return shutdown, errors.Wrap(err, "building trace resource")
	}

	ratio := conf.Tracing.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
