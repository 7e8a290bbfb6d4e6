package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncMetrics_Observe(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := &SyncMetrics{}

	m.Observe(now, 3, 0, 100*time.Millisecond)
	assert.Equal(t, now, m.LastSync)
	assert.Equal(t, int64(3), m.TotalSynced)
	assert.Zero(t, m.FailedCount)
	assert.Equal(t, 100*time.Millisecond, m.AvgSyncTime, "first observation seeds the average")

	later := now.Add(10 * time.Second)
	m.Observe(later, 1, 1, 300*time.Millisecond)
	assert.Equal(t, later, m.LastSync)
	assert.Equal(t, int64(4), m.TotalSynced)
	assert.Equal(t, int64(1), m.FailedCount)
	assert.Equal(t, 200*time.Millisecond, m.AvgSyncTime, "running average folds in each cycle")
}

func TestServerSeq(t *testing.T) {
	confirmed := ConfirmedSeq(7)
	assert.True(t, confirmed.Confirmed)
	assert.Equal(t, int64(7), confirmed.Seq)

	unconfirmed := UnconfirmedSeq()
	assert.False(t, unconfirmed.Confirmed)
	assert.Zero(t, unconfirmed.Seq)
}
