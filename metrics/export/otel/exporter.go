package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

// Constructor errors.
var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() tokengate.MetricsSnapshot
}

// binding ties one asynchronous instrument to the snapshot field it reports.
type binding struct {
	instrument metric.Observable
	observe    func(metric.Observer, *collection)
}

// collection is the per-callback view of a snapshot. Cumulative buckets are
// computed once per histogram and shared by every bucket gauge.
type collection struct {
	snapshot   tokengate.MetricsSnapshot
	cumulative map[tokengate.MetricID][8]uint64
}

func (c *collection) buckets(id tokengate.MetricID) [8]uint64 {
	if b, ok := c.cumulative[id]; ok {
		return b
	}
	b := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(c.snapshot.Histograms[id]))
	c.cumulative[id] = b
	return b
}

// OTelExporter publishes engine metrics through asynchronous instruments.
// All instruments are observed from a single snapshot per collection, so one
// export never mixes values from two points in time.
type OTelExporter struct {
	source       metricsSource
	bindings     []binding
	registration metric.Registration
}

// NewOTelExporter registers instruments for engine on meter.
func NewOTelExporter(meter metric.Meter, engine *tokengate.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments reading from source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}

	for _, def := range internaldefs.CounterDefs {
		id := def.ID
		if err := e.counter(meter, def.Name, def.Help, func(c *collection) uint64 {
			return c.snapshot.Counters[id]
		}); err != nil {
			return nil, err
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		if err := e.histogram(meter, def); err != nil {
			return nil, err
		}
	}

	if err := e.counter(meter, "tokengate_audit_dropped_total",
		"Audit events dropped because the dispatcher queue was full or the caller gave up.",
		func(c *collection) uint64 { return c.snapshot.Audit.Dropped },
	); err != nil {
		return nil, err
	}
	if err := e.counter(meter, "tokengate_audit_delivered_total",
		"Audit events handed to the configured sink.",
		func(c *collection) uint64 { return c.snapshot.Audit.Delivered },
	); err != nil {
		return nil, err
	}

	instruments := make([]metric.Observable, 0, len(e.bindings))
	for _, b := range e.bindings {
		instruments = append(instruments, b.instrument)
	}
	registration, err := meter.RegisterCallback(e.collect, instruments...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration

	return e, nil
}

func (e *OTelExporter) counter(meter metric.Meter, name, help string, read func(*collection) uint64) error {
	ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
	if err != nil {
		return fmt.Errorf("create observable counter %s: %w", name, err)
	}
	e.bindings = append(e.bindings, binding{
		instrument: ins,
		observe: func(o metric.Observer, c *collection) {
			o.ObserveInt64(ins, int64(read(c)))
		},
	})
	return nil
}

// histogram exposes one cumulative gauge per bucket bound plus _count and
// _sum gauges, mirroring the Prometheus histogram layout.
func (e *OTelExporter) histogram(meter metric.Meter, def internaldefs.HistogramDef) error {
	id := def.ID

	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name,
			metric.WithDescription(def.Help+" Cumulative count at or below "+internaldefs.HistogramBounds[i]+"s."))
		if err != nil {
			return fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
		}
		e.bindings = append(e.bindings, binding{
			instrument: ins,
			observe: func(o metric.Observer, c *collection) {
				o.ObserveInt64(ins, int64(c.buckets(id)[i]))
			},
		})
	}

	count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help+" Sample count."))
	if err != nil {
		return fmt.Errorf("create histogram count gauge %s_count: %w", def.Name, err)
	}
	e.bindings = append(e.bindings, binding{
		instrument: count,
		observe: func(o metric.Observer, c *collection) {
			b := c.buckets(id)
			o.ObserveInt64(count, int64(b[len(b)-1]))
		},
	})

	sum, err := meter.Float64ObservableGauge(def.Name+"_sum",
		metric.WithDescription(def.Help+" Total observed time."), metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("create histogram sum gauge %s_sum: %w", def.Name, err)
	}
	e.bindings = append(e.bindings, binding{
		instrument: sum,
		observe: func(o metric.Observer, c *collection) {
			o.ObserveFloat64(sum, c.snapshot.HistogramSums[id].Seconds())
		},
	})

	return nil
}

func (e *OTelExporter) collect(_ context.Context, o metric.Observer) error {
	c := &collection{
		snapshot:   e.source.MetricsSnapshot(),
		cumulative: make(map[tokengate.MetricID][8]uint64, len(internaldefs.HistogramDefs)),
	}
	for _, b := range e.bindings {
		b.observe(o, c)
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
