package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warroomhq/warroom/internal/domain"
)

const (
	progressKeyPrefix = "warroom:dispatch:progress:"
	progressTTL       = 24 * time.Hour
)

// Progress is the live state of a dispatch run as published to Redis.
type Progress struct {
	RunID          string    `json:"run_id"`
	Completed      int       `json:"completed"`
	Total          int       `json:"total"`
	Percent        float64   `json:"percent"`
	CurrentAddress string    `json:"current_address"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RedisReporter publishes per-recipient progress to Redis so the API can
// poll a running campaign without sharing memory with the dispatch loop.
// Its Report method matches ProgressFunc.
type RedisReporter struct {
	client *redis.Client
	runID  string
}

// NewRedisReporter creates a reporter keyed by run ID.
func NewRedisReporter(client *redis.Client, runID string) *RedisReporter {
	return &RedisReporter{client: client, runID: runID}
}

// Report publishes the current progress snapshot. Write failures are
// swallowed: progress reporting must never affect the run itself.
func (r *RedisReporter) Report(completed, total int, current domain.Recipient) {
	p := Progress{
		RunID:          r.runID,
		Completed:      completed,
		Total:          total,
		CurrentAddress: current.Address,
		UpdatedAt:      time.Now(),
	}
	if total > 0 {
		p.Percent = float64(completed) / float64(total) * 100
	}

	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	r.client.Set(context.Background(), progressKeyPrefix+r.runID, data, progressTTL)
}

// GetProgress fetches the last published snapshot for a run.
func GetProgress(ctx context.Context, client *redis.Client, runID string) (*Progress, error) {
	data, err := client.Get(ctx, progressKeyPrefix+runID).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no progress recorded for run %s", runID)
	}
	if err != nil {
		return nil, err
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &p, nil
}
