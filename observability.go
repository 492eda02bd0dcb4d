package simstore

import (
	"time"

	"github.com/armon/go-metrics"
	"github.com/rs/zerolog"
)

// ExecuteSummary captures what one Execute pass did.
type ExecuteSummary struct {
	// Commands is the number of commands drained for this pass.
	Commands int
	Applied  int
	Failed   int
	// Deferred counts commands pushed while the pass ran; they wait for the next Execute.
	Deferred int
	Entities int
	Duration time.Duration
	Err      error
}

// Observer receives a summary after every Execute.
type Observer interface {
	CommandsExecuted(summary ExecuteSummary)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ExecuteSummary)

func (f ObserverFunc) CommandsExecuted(summary ExecuteSummary) {
	f(summary)
}

type compositeObserver struct {
	observers []Observer
}

func (c compositeObserver) CommandsExecuted(summary ExecuteSummary) {
	for _, observer := range c.observers {
		observer.CommandsExecuted(summary)
	}
}

type noopObserver struct{}

func (noopObserver) CommandsExecuted(ExecuteSummary) {}

type loggingObserver struct {
	logger zerolog.Logger
}

// NewLoggingObserver logs each summary. Passes with failures log at error level, the
// rest at debug.
func NewLoggingObserver(logger zerolog.Logger) Observer {
	return loggingObserver{logger: logger}
}

func (o loggingObserver) CommandsExecuted(summary ExecuteSummary) {
	event := o.logger.Debug()
	if summary.Err != nil {
		event = o.logger.Error().Err(summary.Err)
	}
	event.
		Int("commands", summary.Commands).
		Int("applied", summary.Applied).
		Int("failed", summary.Failed).
		Int("deferred", summary.Deferred).
		Int("entities", summary.Entities).
		Dur("duration", summary.Duration).
		Msg("commands executed")
}

type metricsObserver struct {
	sink *metrics.Metrics
}

// NewMetricsObserver reports summaries to a go-metrics instance.
func NewMetricsObserver(sink *metrics.Metrics) Observer {
	if sink == nil {
		return noopObserver{}
	}
	return metricsObserver{sink: sink}
}

func (o metricsObserver) CommandsExecuted(summary ExecuteSummary) {
	o.sink.IncrCounter([]string{"commands", "applied"}, float32(summary.Applied))
	o.sink.IncrCounter([]string{"commands", "failed"}, float32(summary.Failed))
	o.sink.IncrCounter([]string{"commands", "deferred"}, float32(summary.Deferred))
	o.sink.AddSample([]string{"commands", "execute_ms"}, float32(summary.Duration)/float32(time.Millisecond))
	o.sink.SetGauge([]string{"entities", "live"}, float32(summary.Entities))
}

// Stats describes the registry's current contents.
type Stats struct {
	Entities   int
	Components []StoreStats
	Singletons []StoreStats
}

// StoreStats describes one store.
type StoreStats struct {
	Key       TypeKey
	Name      string
	Strategy  string
	Len       int
	Contended uint64
}

// MarshalZerologObject lets Stats be logged with zerolog's Object.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("entities", s.Entities)
	components := zerolog.Arr()
	for _, c := range s.Components {
		components = components.Dict(zerolog.Dict().
			Str("name", c.Name).
			Str("key", c.Key.String()).
			Str("strategy", c.Strategy).
			Int("len", c.Len).
			Uint64("contended", c.Contended))
	}
	e.Array("components", components)
	singletons := zerolog.Arr()
	for _, sg := range s.Singletons {
		singletons = singletons.Dict(zerolog.Dict().
			Str("name", sg.Name).
			Str("key", sg.Key.String()).
			Uint64("contended", sg.Contended))
	}
	e.Array("singletons", singletons)
}
