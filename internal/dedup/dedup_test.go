package dedup

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestJobCache(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	jc := NewJobCache(dir, clock, nil)
	assert.False(t, jc.MarkSeen("job-1"))
	assert.True(t, jc.MarkSeen("job-1"))
	assert.True(t, jc.IsSeen("job-1"))

	reloaded := NewJobCache(dir, clock, nil)
	assert.True(t, reloaded.IsSeen("job-1"))

	clock.Advance(DefaultTTL + time.Hour)
	assert.False(t, reloaded.IsSeen("job-1"))
	assert.False(t, reloaded.MarkSeen("job-1"))

	expired := NewJobCache(dir, clockwork.NewFakeClockAt(clock.Now().Add(DefaultTTL*2)), nil)
	assert.False(t, expired.IsSeen("job-1"))
}

func TestJobCache_Forget(t *testing.T) {
	jc := NewJobCache("", nil, nil)
	jc.MarkSeen("job-1")
	jc.Forget("job-1")
	assert.False(t, jc.IsSeen("job-1"))
}
