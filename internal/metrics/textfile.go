package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pfrederiksen/force-scraper/internal/logger"
)

const namespace = "force_scraper"

// Registry builds a registry holding one gauge per counter and four per
// timing (count, average, min and max) in snap. finished is exported as the
// run's completion time.
func Registry(command string, snap logger.Snapshot, finished time.Time) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	counters := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_counter",
		Help:      "Counters recorded during the last run",
	}, []string{"command", "name"})
	timings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_timing_seconds",
		Help:      "Timings recorded during the last run",
	}, []string{"command", "name", "stat"})
	completed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_completed_timestamp_seconds",
		Help:      "Unix time the last run finished",
	}, []string{"command"})
	reg.MustRegister(counters, timings, completed)

	for name, v := range snap.Counters {
		counters.WithLabelValues(command, name).Set(float64(v))
	}
	for name, stats := range snap.Timings {
		timings.WithLabelValues(command, name, "count").Set(float64(stats.Count))
		timings.WithLabelValues(command, name, "avg").Set(stats.Average.Seconds())
		timings.WithLabelValues(command, name, "min").Set(stats.Min.Seconds())
		timings.WithLabelValues(command, name, "max").Set(stats.Max.Seconds())
	}
	completed.WithLabelValues(command).Set(float64(finished.Unix()))

	return reg
}

// WriteTextfile writes the run metrics to path, creating its directory.
func WriteTextfile(path, command string, snap logger.Snapshot, finished time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Registry(command, snap, finished)); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
