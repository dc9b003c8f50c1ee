package telemetry

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
)

// Config selects where spans go. An empty Endpoint keeps tracing in-process.
type Config struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	Required    bool
}

// Init installs the global tracer provider and returns its shutdown func.
func Init(ctx context.Context, cfg Config, log zerolog.Logger) (func(context.Context) error, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tradedesk-dashboard"
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
	))

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	}

	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		expOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithTimeout(5 * time.Second),
		}
		if cfg.Insecure {
			expOpts = append(expOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, expOpts...)
		switch {
		case err != nil && cfg.Required:
			return nil, err
		case err != nil:
			log.Warn().Err(err).Msg("otlp exporter disabled")
		default:
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// HTTPHandler instruments inbound requests.
func HTTPHandler(h http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(h, operation)
}

// InstrumentClient wraps client with an OTel transport. A nil client gets
// a default with the given timeout.
func InstrumentClient(client *http.Client, timeout time.Duration) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(base)
	return client
}
