package telemetry

import (
	"context"
	"time"

	"github.com/goto/salt/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/goto/changelogger/config"
)

const (
	serviceName = "changelogger"

	shutdownTimeout = 5 * time.Second
)

// Init installs a global tracer provider exporting to jaeger. Without a jaeger address tracing stays a no-op.
func Init(l log.Logger, conf config.TelemetryConfig) (func(), error) {
	if conf.JaegerAddr == "" {
		return func() {}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(conf.JaegerAddr)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", config.BuildVersion),
		)),
	)
	otel.SetTracerProvider(tp)
	l.Info("tracing enabled", "jaeger", conf.JaegerAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := tp.Shutdown(ctx); err != nil {
			l.Error("error shutting down tracer provider", "error", err.Error())
		}
	}, nil
}
