package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments for the emission pipeline
// and the coupon lifecycle.
type Metrics struct {
	documentsAssembled metric.Int64Counter
	couponsOpened      metric.Int64Counter
	couponsClosed      metric.Int64Counter
	couponsCancelled   metric.Int64Counter
	couponsFailed      metric.Int64Counter
	printerFaults      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "fiscal"
	}
	meter := provider.Meter(name)

	documentsAssembled, err := meter.Int64Counter("fiscal_documents_assembled_total")
	if err != nil {
		return nil, err
	}
	couponsOpened, err := meter.Int64Counter("fiscal_coupons_opened_total")
	if err != nil {
		return nil, err
	}
	couponsClosed, err := meter.Int64Counter("fiscal_coupons_closed_total")
	if err != nil {
		return nil, err
	}
	couponsCancelled, err := meter.Int64Counter("fiscal_coupons_cancelled_total")
	if err != nil {
		return nil, err
	}
	couponsFailed, err := meter.Int64Counter("fiscal_coupons_failed_total")
	if err != nil {
		return nil, err
	}
	printerFaults, err := meter.Int64Counter("fiscal_printer_faults_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		documentsAssembled: documentsAssembled,
		couponsOpened:      couponsOpened,
		couponsClosed:      couponsClosed,
		couponsCancelled:   couponsCancelled,
		couponsFailed:      couponsFailed,
		printerFaults:      printerFaults,
	}, nil
}

// DocumentAssembled increments the assembled document count.
func (m *Metrics) DocumentAssembled(ctx context.Context, model string) {
	if m == nil {
		return
	}
	attrs := filterAttributes(attribute.String("model", strings.TrimSpace(model)))
	m.documentsAssembled.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// CouponOpened increments the opened coupon count.
func (m *Metrics) CouponOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.couponsOpened.Add(ctx, 1)
}

// CouponClosed increments the closed coupon count.
func (m *Metrics) CouponClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.couponsClosed.Add(ctx, 1)
}

// CouponCancelled increments the cancelled coupon count.
func (m *Metrics) CouponCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.couponsCancelled.Add(ctx, 1)
}

// CouponFailed increments the failed coupon count.
func (m *Metrics) CouponFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.couponsFailed.Add(ctx, 1)
}

// PrinterFault counts transient printer faults by lifecycle step.
func (m *Metrics) PrinterFault(ctx context.Context, step string) {
	if m == nil {
		return
	}
	attrs := filterAttributes(attribute.String("step", strings.TrimSpace(step)))
	m.printerFaults.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"model": {},
	"step":  {},
}

// filterAttributes strips disallowed labels to keep metrics low-cardinality.
func filterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
