package guardkit

import (
	internalmetrics "github.com/guardkit/guardkit/internal/metrics"
)

// MetricID identifies a single engine counter.
type MetricID = internalmetrics.MetricID

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	MetricSignupSuccess            = internalmetrics.MetricSignupSuccess
	MetricSignupDuplicate          = internalmetrics.MetricSignupDuplicate
	MetricSignupInvalid            = internalmetrics.MetricSignupInvalid
	MetricLoginSuccess             = internalmetrics.MetricLoginSuccess
	MetricLoginFailure             = internalmetrics.MetricLoginFailure
	MetricLogout                   = internalmetrics.MetricLogout
	MetricSessionCreated           = internalmetrics.MetricSessionCreated
	MetricSessionInvalidated       = internalmetrics.MetricSessionInvalidated
	MetricPasswordChangeSuccess    = internalmetrics.MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld = internalmetrics.MetricPasswordChangeInvalidOld
	MetricVerifiedFlagChanged      = internalmetrics.MetricVerifiedFlagChanged
	MetricAdminFlagChanged         = internalmetrics.MetricAdminFlagChanged
	MetricAccountDeleted           = internalmetrics.MetricAccountDeleted
	MetricResolveAnonymous         = internalmetrics.MetricResolveAnonymous
	MetricResolveAuthenticated     = internalmetrics.MetricResolveAuthenticated
	MetricDanglingSessionCleaned   = internalmetrics.MetricDanglingSessionCleaned
)

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// MetricsSnapshot returns a deep copy of the engine's counters. With
// metrics disabled the snapshot is empty.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}
