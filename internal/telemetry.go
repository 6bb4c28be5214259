// Package internal contains the telemetry shared by all the components.
package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/FerroO2000/ringq"

var (
	logLevel = &slog.LevelVar{}

	baseLogger     *slog.Logger
	baseLoggerOnce sync.Once
)

// SetLogLevel sets the minimum level of the console logs.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// newConsoleHandler returns the console handler,
// filtered by the level set with SetLogLevel.
func newConsoleHandler(w io.Writer, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

func getBaseLogger() *slog.Logger {
	baseLoggerOnce.Do(func() {
		noColor := !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

		baseLogger = slog.New(&teeHandler{
			handlers: []slog.Handler{
				newConsoleHandler(colorable.NewColorable(os.Stdout), noColor),
				otelslog.NewHandler(scopeName),
			},
		})
	})

	return baseLogger
}

// Telemetry groups the logger, the meter and the tracer of a component.
type Telemetry struct {
	logger *slog.Logger
	meter  metric.Meter
	tracer trace.Tracer

	attrs attribute.Set

	regMux        sync.Mutex
	registrations []metric.Registration
}

// NewTelemetry returns the telemetry for the component
// of the given kind (e.g. ingress, connector) and name.
func NewTelemetry(kind, name string) *Telemetry {
	return &Telemetry{
		logger: getBaseLogger().With("component_kind", kind, "component_name", name),
		meter:  otel.Meter(scopeName),
		tracer: otel.Tracer(scopeName),

		attrs: attribute.NewSet(
			attribute.String("component_kind", kind),
			attribute.String("component_name", name),
		),
	}
}

// LogDebug logs a debug message.
func (t *Telemetry) LogDebug(msg string, args ...any) {
	t.logger.Debug(msg, args...)
}

// LogInfo logs an info message.
func (t *Telemetry) LogInfo(msg string, args ...any) {
	t.logger.Info(msg, args...)
}

// LogWarn logs a warning message.
func (t *Telemetry) LogWarn(msg string, args ...any) {
	t.logger.Warn(msg, args...)
}

// LogError logs an error message along with the error.
func (t *Telemetry) LogError(msg string, err error, args ...any) {
	t.logger.Error(msg, append([]any{tint.Err(err)}, args...)...)
}

// NewTrace starts a new span.
func (t *Telemetry) NewTrace(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, trace.WithAttributes(t.attrs.ToSlice()...))
}

func (t *Telemetry) registerObservable(name string, inst metric.Int64Observable, fn func() int64) {
	reg, err := t.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(inst, fn(), metric.WithAttributeSet(t.attrs))
		return nil
	}, inst)
	if err != nil {
		t.LogError("failed to register callback", err, "name", name)
		return
	}

	t.regMux.Lock()
	t.registrations = append(t.registrations, reg)
	t.regMux.Unlock()
}

// NewCounter registers a monotonic counter whose value is read from fn.
func (t *Telemetry) NewCounter(name string, fn func() int64) {
	counter, err := t.meter.Int64ObservableCounter(name)
	if err != nil {
		t.LogError("failed to create counter", err, "name", name)
		return
	}

	t.registerObservable(name, counter, fn)
}

// NewUpDownCounter registers an up/down counter whose value is read from fn.
func (t *Telemetry) NewUpDownCounter(name string, fn func() int64) {
	counter, err := t.meter.Int64ObservableUpDownCounter(name)
	if err != nil {
		t.LogError("failed to create up/down counter", err, "name", name)
		return
	}

	t.registerObservable(name, counter, fn)
}

// NewGauge registers a gauge whose value is read from fn.
func (t *Telemetry) NewGauge(name string, fn func() int64) {
	gauge, err := t.meter.Int64ObservableGauge(name)
	if err != nil {
		t.LogError("failed to create gauge", err, "name", name)
		return
	}

	t.registerObservable(name, gauge, fn)
}

// UnregisterMetrics removes the callbacks of the counters and gauges,
// so the meter no longer references the component.
// It is safe to call it more than once.
func (t *Telemetry) UnregisterMetrics() {
	t.regMux.Lock()
	registrations := t.registrations
	t.registrations = nil
	t.regMux.Unlock()

	for _, reg := range registrations {
		if err := reg.Unregister(); err != nil {
			t.LogError("failed to unregister callback", err)
		}
	}
}

// Histogram is an int64 histogram bound to the component attributes.
type Histogram struct {
	hist  metric.Int64Histogram
	attrs attribute.Set
}

// Record records a value.
func (h *Histogram) Record(ctx context.Context, value int64) {
	if h.hist == nil {
		return
	}

	h.hist.Record(ctx, value, metric.WithAttributeSet(h.attrs))
}

// NewHistogram returns a new histogram.
func (t *Telemetry) NewHistogram(name string, opts ...metric.Int64HistogramOption) *Histogram {
	hist, err := t.meter.Int64Histogram(name, opts...)
	if err != nil {
		t.LogError("failed to create histogram", err, "name", name)
	}

	return &Histogram{
		hist:  hist,
		attrs: t.attrs,
	}
}

// teeHandler sends every record to all of its handlers.
type teeHandler struct {
	handlers []slog.Handler
}

func (th *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range th.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (th *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error

	for _, h := range th.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}

		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (th *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, 0, len(th.handlers))
	for _, h := range th.handlers {
		handlers = append(handlers, h.WithAttrs(attrs))
	}
	return &teeHandler{handlers: handlers}
}

func (th *teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, 0, len(th.handlers))
	for _, h := range th.handlers {
		handlers = append(handlers, h.WithGroup(name))
	}
	return &teeHandler{handlers: handlers}
}
