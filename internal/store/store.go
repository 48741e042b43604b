// Package store persists application records. One record is kept per job,
// keyed by store.JobKey, and moves from pending to submitted or failed.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Load when no record exists for the key.
var ErrNotFound = errors.New("record not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
)

type Method string

const (
	MethodAuto   Method = "auto"
	MethodManual Method = "manual"
)

type Record struct {
	ID              string    `json:"id"`
	Key             string    `json:"key"`
	JobID           string    `json:"job_id"`
	JobTitle        string    `json:"job_title,omitempty"`
	Company         string    `json:"company,omitempty"`
	JobDescription  string    `json:"job_description,omitempty"`
	MatchedKeywords []string  `json:"matched_keywords,omitempty"`
	ProfileID       string    `json:"profile_id,omitempty"`
	CoverLetter     string    `json:"cover_letter,omitempty"`
	Handle          string    `json:"telegram_username,omitempty"`
	ReferralID      string    `json:"share_id,omitempty"`
	ApplicationID   string    `json:"application_id,omitempty"`
	Status          Status    `json:"status"`
	Error           string    `json:"error,omitempty"`
	LastError       string    `json:"last_error,omitempty"` // failed retry after submission
	Method          Method    `json:"method,omitempty"`
	SavedAt         time.Time `json:"saved_at"`
}

// NewRecord starts a record for jobID with a fresh ID.
func NewRecord(jobID string, status Status, now time.Time) Record {
	return Record{
		ID:      uuid.NewString(),
		Key:     JobKey(jobID),
		JobID:   jobID,
		Status:  status,
		SavedAt: now.UTC(),
	}
}

// JobKey is the storage key of a job: its ID cut to 8 characters.
func JobKey(jobID string) string {
	jobID = strings.TrimSpace(jobID)
	if len(jobID) > 8 {
		return jobID[:8]
	}
	return jobID
}

type Store interface {
	Save(ctx context.Context, key string, rec Record) error
	Load(ctx context.Context, key string) (Record, error)
	// List returns every record with the given status, or all records when
	// status is empty, newest first.
	List(ctx context.Context, status Status) ([]Record, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

func validKey(key string) error {
	if key == "" {
		return errors.New("empty record key")
	}
	if strings.ContainsAny(key, `/\:`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid record key %q", key)
	}
	return nil
}

// Options selects and configures a Store implementation.
type Options struct {
	Driver      string
	Dir         string
	DatabaseURL string
	RedisAddr   string
	RedisPrefix string
}

// Open builds the store named by opts.Driver. An empty driver means "file".
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "file":
		return NewFileStore(opts.Dir)
	case "postgres":
		if opts.DatabaseURL == "" {
			return nil, errors.New("postgres store requires a database url")
		}
		return ConnectPostgres(ctx, opts.DatabaseURL)
	case "redis":
		if opts.RedisAddr == "" {
			return nil, errors.New("redis store requires an address")
		}
		return ConnectRedis(ctx, opts.RedisAddr, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
