// Package metrics provides render observability hooks.
package metrics

import "time"

// ResultLabel enumerates render outcomes.
type ResultLabel string

const (
	ResultHit   ResultLabel = "hit"
	ResultMiss  ResultLabel = "miss"
	ResultError ResultLabel = "error"
)

// Recorder receives render metrics. Implementations may forward to
// Prometheus or anything else; NoopRecorder is the default.
type Recorder interface {
	IncRender(result ResultLabel)
	ObserveRenderDuration(result ResultLabel, d time.Duration)
	IncCacheSaveError()
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncRender(ResultLabel)                            {}
func (NoopRecorder) ObserveRenderDuration(ResultLabel, time.Duration) {}
func (NoopRecorder) IncCacheSaveError()                               {}
