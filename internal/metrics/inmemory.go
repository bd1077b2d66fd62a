package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Subscriptions    map[string]uint64
	Confirmations    map[string]uint64
	Deliveries       map[string]uint64
	EmailSendCount   uint64
	EmailSendTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu               sync.Mutex
	subscriptions    map[string]uint64
	confirmations    map[string]uint64
	deliveries       map[string]uint64
	emailSendCount   uint64
	emailSendTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		subscriptions: make(map[string]uint64),
		confirmations: make(map[string]uint64),
		deliveries:    make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Subscriptions:    copyCounts(m.subscriptions),
		Confirmations:    copyCounts(m.confirmations),
		Deliveries:       copyCounts(m.deliveries),
		EmailSendCount:   m.emailSendCount,
		EmailSendTotalNs: m.emailSendTotalNs,
	}
}

// IncSubscription counts a subscribe attempt by outcome.
func (m *InMemoryRecorder) IncSubscription(outcome string) {
	m.mu.Lock()
	m.subscriptions[outcome]++
	m.mu.Unlock()
}

// IncConfirmation counts a confirm attempt by outcome.
func (m *InMemoryRecorder) IncConfirmation(outcome string) {
	m.mu.Lock()
	m.confirmations[outcome]++
	m.mu.Unlock()
}

// IncNewsletterDelivery counts a per-recipient publish result.
func (m *InMemoryRecorder) IncNewsletterDelivery(status string) {
	m.mu.Lock()
	m.deliveries[status]++
	m.mu.Unlock()
}

// ObserveEmailSendDuration records outbound email latency.
func (m *InMemoryRecorder) ObserveEmailSendDuration(_ string, duration time.Duration) {
	m.mu.Lock()
	m.emailSendCount++
	m.emailSendTotalNs += duration.Nanoseconds()
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
