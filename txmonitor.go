package grantkit

import (
	"sync"
	"time"
)

// WriteMetrics provides performance and failure statistics for the
// transactional write path (replace assigns, role changes).
type WriteMetrics struct {
	Total           int64         `json:"total"`
	Successful      int64         `json:"successful"`
	Failed          int64         `json:"failed"`
	AverageDuration time.Duration `json:"average_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	LastReset       time.Time     `json:"last_reset"`
}

// txMonitor accumulates write transaction statistics.
type txMonitor struct {
	mu            sync.Mutex
	total         int64
	failed        int64
	totalDuration time.Duration
	maxDuration   time.Duration
	lastReset     time.Time
}

func newTxMonitor() *txMonitor {
	return &txMonitor{lastReset: time.Now()}
}

func (m *txMonitor) record(duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if !success {
		m.failed++
	}
	m.totalDuration += duration
	if duration > m.maxDuration {
		m.maxDuration = duration
	}
}

func (m *txMonitor) metrics() WriteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if m.total > 0 {
		avg = m.totalDuration / time.Duration(m.total)
	}
	return WriteMetrics{
		Total:           m.total,
		Successful:      m.total - m.failed,
		Failed:          m.failed,
		AverageDuration: avg,
		MaxDuration:     m.maxDuration,
		LastReset:       m.lastReset,
	}
}

func (m *txMonitor) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = 0
	m.failed = 0
	m.totalDuration = 0
	m.maxDuration = 0
	m.lastReset = time.Now()
}
