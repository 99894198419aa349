// Package prometheus exposes the engine's in-process counters as a
// prometheus.Collector so host applications can mount them on an existing
// registry or serve them standalone.
package prometheus
