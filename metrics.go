package linerotate

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics is a snapshot of a Writer's counters.
type Metrics struct {
	Lines     uint64 // completed lines written
	Bytes     uint64 // input bytes written, prefixes excluded
	Rotations uint64 // rotations performed, the initial one included
	Warnings  uint64 // non-fatal failures such as a failed flush
}

type writerMetrics struct {
	lines     prometheus.Counter
	bytes     prometheus.Counter
	rotations prometheus.Counter
	warnings  prometheus.Counter
}

func newWriterMetrics(filename string) *writerMetrics {
	newCounter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "linerotate",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"file": filename},
		})
	}
	return &writerMetrics{
		lines:     newCounter("lines_total", "Completed lines written to the log."),
		bytes:     newCounter("bytes_total", "Input bytes written to the log."),
		rotations: newCounter("rotations_total", "Log rotations performed."),
		warnings:  newCounter("warnings_total", "Non-fatal I/O failures."),
	}
}

// register adds the counters to reg. Counters already registered under
// the same identity are reused, so a second Writer on the same file
// keeps counting into the first one's series.
func (m *writerMetrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	targets := []*prometheus.Counter{&m.lines, &m.bytes, &m.rotations, &m.warnings}
	for _, c := range targets {
		if err := reg.Register(*c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return fmt.Errorf("failed to register metrics: %w", err)
			}
			existing, ok := are.ExistingCollector.(prometheus.Counter)
			if !ok {
				return fmt.Errorf("failed to register metrics: %w", err)
			}
			*c = existing
		}
	}
	return nil
}

func (m *writerMetrics) snapshot() Metrics {
	return Metrics{
		Lines:     counterValue(m.lines),
		Bytes:     counterValue(m.bytes),
		Rotations: counterValue(m.rotations),
		Warnings:  counterValue(m.warnings),
	}
}

func counterValue(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}
