// Pipeline-specific debugging and performance monitoring
package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Debugger records every pipeline stage with its timing.
type Debugger struct {
	mu      sync.Mutex
	logger  logrus.FieldLogger
	enabled bool

	operations []Operation

	// Performance metrics by stage category
	bandTimes    []time.Duration
	composeTimes []time.Duration
	stepTimes    []time.Duration
	metricTimes  []time.Duration
}

// Operation tracks one pipeline stage
type Operation struct {
	Timestamp time.Time
	Operation string // "low_pass", "high_pass", "hybrid", "frames", "cascade", "step", "metrics"
	Success   bool
	Duration  time.Duration
	Details   map[string]interface{}
	Error     string
}

func NewDebugger(logger logrus.FieldLogger, enabled bool) *Debugger {
	return &Debugger{
		logger:     logger,
		enabled:    enabled,
		operations: make([]Operation, 0),
	}
}

// LogOperation records a stage and logs it at debug level, or at error
// level when it failed.
func (d *Debugger) LogOperation(operation string, duration time.Duration, details map[string]interface{}, err error) {
	if d == nil || !d.enabled {
		return
	}

	errorStr := ""
	if err != nil {
		errorStr = err.Error()
	}

	d.mu.Lock()
	d.operations = append(d.operations, Operation{
		Timestamp: time.Now(),
		Operation: operation,
		Success:   err == nil,
		Duration:  duration,
		Details:   details,
		Error:     errorStr,
	})

	switch operation {
	case "low_pass", "high_pass", "frames":
		d.bandTimes = append(d.bandTimes, duration)
	case "hybrid", "cascade":
		d.composeTimes = append(d.composeTimes, duration)
	case "step":
		d.stepTimes = append(d.stepTimes, duration)
	case "metrics":
		d.metricTimes = append(d.metricTimes, duration)
	}
	d.mu.Unlock()

	entry := d.logger.WithFields(logrus.Fields{
		"operation":   operation,
		"success":     err == nil,
		"duration_ms": duration.Milliseconds(),
	}).WithFields(logrus.Fields(details))
	if err != nil {
		entry.WithError(err).Error("PIPELINE stage failed")
		return
	}
	entry.Debug("PIPELINE stage")
}

// Track times fn and records it as operation.
func (d *Debugger) Track(operation string, details map[string]interface{}, fn func() error) error {
	start := time.Now()
	err := fn()
	d.LogOperation(operation, time.Since(start), details, err)
	return err
}

// Operations returns a copy of the recorded stages
func (d *Debugger) Operations() []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()

	ops := make([]Operation, len(d.operations))
	copy(ops, d.operations)
	return ops
}

// PrintStatus writes a human-readable summary to w
func (d *Debugger) PrintStatus(w io.Writer) {
	if !d.enabled {
		return
	}
	stats := d.GetStats()
	ops := d.Operations()

	fmt.Fprintln(w, "=== PIPELINE DEBUG STATUS ===")
	fmt.Fprintf(w, "Total Operations: %d\n", len(ops))
	if avg, ok := stats["avg_band_time"]; ok {
		fmt.Fprintf(w, "Average Band Time: %v\n", avg)
	}
	if avg, ok := stats["avg_compose_time"]; ok {
		fmt.Fprintf(w, "Average Compose Time: %v\n", avg)
	}
	if avg, ok := stats["avg_step_time"]; ok {
		fmt.Fprintf(w, "Average Step Time: %v\n", avg)
	}

	fmt.Fprintln(w, "\nRecent Operations:")
	recentCount := min(5, len(ops))
	for _, op := range ops[len(ops)-recentCount:] {
		status := "SUCCESS"
		if !op.Success {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  [%s] %s - %s (%v)\n",
			op.Timestamp.Format("15:04:05.000"),
			op.Operation,
			status,
			op.Duration)
	}
}

func (d *Debugger) GetStats() map[string]interface{} {
	if !d.enabled {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stats := map[string]interface{}{
		"total_operations": len(d.operations),
	}

	successCount := 0
	for _, op := range d.operations {
		if op.Success {
			successCount++
		}
	}
	if len(d.operations) > 0 {
		stats["success_rate"] = float64(successCount) / float64(len(d.operations))
	}

	if len(d.bandTimes) > 0 {
		stats["avg_band_time"] = averageDuration(d.bandTimes)
	}
	if len(d.composeTimes) > 0 {
		stats["avg_compose_time"] = averageDuration(d.composeTimes)
	}
	if len(d.stepTimes) > 0 {
		stats["avg_step_time"] = averageDuration(d.stepTimes)
	}
	if len(d.metricTimes) > 0 {
		stats["avg_metrics_time"] = averageDuration(d.metricTimes)
	}

	return stats
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return total / time.Duration(len(durations))
}
