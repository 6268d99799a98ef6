package qkernel

import (
	"sync"
	"time"
)

// Metrics tracks dispatch activity for a pipeline run.
type Metrics struct {
	mu sync.RWMutex

	BatchesDispatched int
	ChunksSubmitted   int
	CircuitsExecuted  int64
	ExecutionFailures int
	NumericAnomalies  int64

	TotalExecutionTime time.Duration
	QueueWaitTime      time.Duration
}

// NewMetrics creates a zeroed metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordChunk(circuits int, queueWait, execution time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChunksSubmitted++
	m.CircuitsExecuted += int64(circuits)
	m.QueueWaitTime += queueWait
	m.TotalExecutionTime += execution
}

func (m *Metrics) recordBatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchesDispatched++
}

func (m *Metrics) recordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecutionFailures++
}

func (m *Metrics) recordAnomalies(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NumericAnomalies += n
}

// AverageCircuitTime returns the mean wall time per executed circuit.
func (m *Metrics) AverageCircuitTime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.CircuitsExecuted == 0 {
		return 0
	}
	return m.TotalExecutionTime / time.Duration(m.CircuitsExecuted)
}

// Export returns a snapshot suitable for logging or external collection.
func (m *Metrics) Export() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"batches_dispatched": m.BatchesDispatched,
		"chunks_submitted":   m.ChunksSubmitted,
		"circuits_executed":  m.CircuitsExecuted,
		"execution_failures": m.ExecutionFailures,
		"numeric_anomalies":  m.NumericAnomalies,
		"queue_wait_ms":      m.QueueWaitTime.Milliseconds(),
		"execution_ms":       m.TotalExecutionTime.Milliseconds(),
	}
}
