package goadsym

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics defines the interface for collecting operational metrics.
// Implementations can export metrics to various backends (Prometheus, StatsD, etc.).
type Metrics interface {
	// Schema metrics
	SchemaLoaded(symbols, dataTypes int, duration time.Duration)

	// Operation metrics
	OperationStarted(operation string)
	OperationCompleted(operation string, duration time.Duration, err error)

	// Data transfer metrics
	BytesRead(bytes int64)
	BytesWritten(bytes int64)

	// Error metrics
	ErrorOccurred(category ErrorCategory, operation string)
}

// noopMetrics implements Metrics with no-op operations for minimal overhead.
type noopMetrics struct{}

func (n *noopMetrics) SchemaLoaded(symbols, dataTypes int, duration time.Duration)            {}
func (n *noopMetrics) OperationStarted(operation string)                                      {}
func (n *noopMetrics) OperationCompleted(operation string, duration time.Duration, err error) {}
func (n *noopMetrics) BytesRead(bytes int64)                                                  {}
func (n *noopMetrics) BytesWritten(bytes int64)                                               {}
func (n *noopMetrics) ErrorOccurred(category ErrorCategory, operation string)                 {}

var (
	// DefaultMetrics is a no-op metrics collector to minimize overhead when metrics are not configured.
	DefaultMetrics Metrics = &noopMetrics{}
)

// InMemoryMetrics provides a simple in-memory metrics collector for testing and debugging.
type InMemoryMetrics struct {
	mu sync.RWMutex

	// Schema metrics
	SchemaLoadsCount   atomic.Int64
	SymbolsLoaded      atomic.Int64
	DataTypesLoaded    atomic.Int64
	SchemaLoadDuration atomic.Int64

	// Operation metrics
	OperationCounts    map[string]*atomic.Int64
	OperationDurations map[string][]time.Duration
	OperationErrors    map[string]*atomic.Int64

	// Data transfer metrics
	BytesReadCount    atomic.Int64
	BytesWrittenCount atomic.Int64

	// Error metrics
	ErrorsByCategory  map[ErrorCategory]*atomic.Int64
	ErrorsByOperation map[string]*atomic.Int64
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		OperationCounts:    make(map[string]*atomic.Int64),
		OperationDurations: make(map[string][]time.Duration),
		OperationErrors:    make(map[string]*atomic.Int64),
		ErrorsByCategory:   make(map[ErrorCategory]*atomic.Int64),
		ErrorsByOperation:  make(map[string]*atomic.Int64),
	}
}

func (m *InMemoryMetrics) SchemaLoaded(symbols, dataTypes int, duration time.Duration) {
	m.SchemaLoadsCount.Add(1)
	m.SymbolsLoaded.Store(int64(symbols))
	m.DataTypesLoaded.Store(int64(dataTypes))
	m.SchemaLoadDuration.Store(int64(duration))
}

func (m *InMemoryMetrics) OperationStarted(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.OperationCounts[operation]; !exists {
		m.OperationCounts[operation] = &atomic.Int64{}
	}
	m.OperationCounts[operation].Add(1)
}

func (m *InMemoryMetrics) OperationCompleted(operation string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OperationDurations[operation] = append(m.OperationDurations[operation], duration)

	if err != nil {
		if _, exists := m.OperationErrors[operation]; !exists {
			m.OperationErrors[operation] = &atomic.Int64{}
		}
		m.OperationErrors[operation].Add(1)
	}
}

func (m *InMemoryMetrics) BytesRead(bytes int64) {
	m.BytesReadCount.Add(bytes)
}

func (m *InMemoryMetrics) BytesWritten(bytes int64) {
	m.BytesWrittenCount.Add(bytes)
}

func (m *InMemoryMetrics) ErrorOccurred(category ErrorCategory, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ErrorsByCategory[category]; !exists {
		m.ErrorsByCategory[category] = &atomic.Int64{}
	}
	m.ErrorsByCategory[category].Add(1)

	if _, exists := m.ErrorsByOperation[operation]; !exists {
		m.ErrorsByOperation[operation] = &atomic.Int64{}
	}
	m.ErrorsByOperation[operation].Add(1)
}

// Snapshot returns a copy of current metrics for reporting.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		SchemaLoads:       m.SchemaLoadsCount.Load(),
		Symbols:           m.SymbolsLoaded.Load(),
		DataTypes:         m.DataTypesLoaded.Load(),
		SchemaLoadTime:    time.Duration(m.SchemaLoadDuration.Load()),
		BytesRead:         m.BytesReadCount.Load(),
		BytesWritten:      m.BytesWrittenCount.Load(),
		OperationCounts:   make(map[string]int64),
		OperationErrors:   make(map[string]int64),
		ErrorsByCategory:  make(map[ErrorCategory]int64),
		ErrorsByOperation: make(map[string]int64),
	}

	for op, counter := range m.OperationCounts {
		snapshot.OperationCounts[op] = counter.Load()
	}

	for op, counter := range m.OperationErrors {
		snapshot.OperationErrors[op] = counter.Load()
	}

	for cat, counter := range m.ErrorsByCategory {
		snapshot.ErrorsByCategory[cat] = counter.Load()
	}

	for op, counter := range m.ErrorsByOperation {
		snapshot.ErrorsByOperation[op] = counter.Load()
	}

	return snapshot
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	SchemaLoads       int64
	Symbols           int64
	DataTypes         int64
	SchemaLoadTime    time.Duration
	BytesRead         int64
	BytesWritten      int64
	OperationCounts   map[string]int64
	OperationErrors   map[string]int64
	ErrorsByCategory  map[ErrorCategory]int64
	ErrorsByOperation map[string]int64
}

// WithMetrics returns a new option that sets the metrics collector for the client.
func WithMetrics(metrics Metrics) Option {
	return func(c *clientConfig) error {
		c.metrics = metrics
		return nil
	}
}
