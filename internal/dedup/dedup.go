// Package dedup remembers which job ids the watcher has already handled.
package dedup

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long a job id stays remembered.
const DefaultTTL = 30 * 24 * time.Hour

type seenEntry struct {
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
}

// JobCache is a set of job ids persisted as JSON. A cache without a file
// path lives in memory only.
type JobCache struct {
	mu       sync.Mutex
	filePath string
	ttl      time.Duration
	clock    clockwork.Clock
	log      *slog.Logger
	seen     map[string]int64
}

// NewJobCache creates or loads the cache stored in cacheDir/seen_jobs.json.
func NewJobCache(cacheDir string, clock clockwork.Clock, log *slog.Logger) *JobCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	jc := &JobCache{
		ttl:   DefaultTTL,
		clock: clock,
		log:   log,
		seen:  make(map[string]int64),
	}
	if cacheDir == "" {
		return jc
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		log.Warn("failed to create cache directory", "dir", cacheDir, "error", err)
	}
	jc.filePath = filepath.Join(cacheDir, "seen_jobs.json")
	jc.load()
	return jc
}

// MarkSeen records jobID and reports whether it was already known.
func (jc *JobCache) MarkSeen(jobID string) bool {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	now := jc.clock.Now().UnixMilli()
	if ts, ok := jc.seen[jobID]; ok && now-ts < jc.ttl.Milliseconds() {
		return true
	}
	jc.seen[jobID] = now
	jc.save()
	return false
}

func (jc *JobCache) IsSeen(jobID string) bool {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	ts, ok := jc.seen[jobID]
	return ok && jc.clock.Now().UnixMilli()-ts < jc.ttl.Milliseconds()
}

// Forget drops jobID so that a later post for it is handled again.
func (jc *JobCache) Forget(jobID string) {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	if _, ok := jc.seen[jobID]; ok {
		delete(jc.seen, jobID)
		jc.save()
	}
}

// load reads the cache from disk, dropping expired entries.
func (jc *JobCache) load() {
	data, err := os.ReadFile(jc.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			jc.log.Warn("failed to read seen jobs", "path", jc.filePath, "error", err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		jc.log.Warn("failed to parse seen jobs", "path", jc.filePath, "error", err)
		return
	}

	cutoff := jc.clock.Now().UnixMilli() - jc.ttl.Milliseconds()
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			jc.seen[e.JobID] = e.Timestamp
			loaded++
		}
	}
	jc.log.Info("loaded seen jobs", "loaded", loaded, "expired", len(entries)-loaded)
}

// save writes the cache to disk. Callers hold mu.
func (jc *JobCache) save() {
	if jc.filePath == "" {
		return
	}
	entries := make([]seenEntry, 0, len(jc.seen))
	for id, ts := range jc.seen {
		entries = append(entries, seenEntry{JobID: id, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		jc.log.Warn("failed to marshal seen jobs", "error", err)
		return
	}
	if err := os.WriteFile(jc.filePath, data, 0o644); err != nil {
		jc.log.Warn("failed to write seen jobs", "path", jc.filePath, "error", err)
	}
}
