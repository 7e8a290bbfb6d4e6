package models

import "time"

// SyncMetrics is the best-effort bookkeeping record of sync cycles.
// Updates to it never block the sync path.
type SyncMetrics struct {
	LastSync    time.Time     `json:"last_sync"`
	TotalSynced int64         `json:"total_synced"`
	FailedCount int64         `json:"failed_count"`
	AvgSyncTime time.Duration `json:"avg_sync_time"`
}

// Observe folds one completed sync cycle into the metrics
func (m *SyncMetrics) Observe(now time.Time, synced, failed int, duration time.Duration) {
	m.LastSync = now
	m.TotalSynced += int64(synced)
	m.FailedCount += int64(failed)
	if m.AvgSyncTime == 0 {
		m.AvgSyncTime = duration
	} else {
		m.AvgSyncTime = (m.AvgSyncTime + duration) / 2
	}
}
