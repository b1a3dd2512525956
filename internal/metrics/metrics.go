package metrics

import "sync/atomic"

// MetricID identifies a single engine counter.
type MetricID int

const (
	MetricSignupSuccess MetricID = iota
	MetricSignupDuplicate
	MetricSignupInvalid
	MetricLoginSuccess
	MetricLoginFailure
	MetricLogout
	MetricSessionCreated
	MetricSessionInvalidated
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricVerifiedFlagChanged
	MetricAdminFlagChanged
	MetricAccountDeleted
	MetricResolveAnonymous
	MetricResolveAuthenticated
	MetricDanglingSessionCleaned

	MetricIDCount
)

// Config controls metrics collection. When Enabled is false every operation
// is a no-op with no atomic traffic.
type Config struct {
	Enabled bool
}

// Metrics holds one atomic counter per MetricID.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters: make(map[MetricID]uint64, MetricIDCount),
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
