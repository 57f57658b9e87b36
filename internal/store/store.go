// Package store persists campaigns and dispatch runs. The in-memory
// implementation backs single-node deployments and tests; Postgres is used
// when DATABASE_URL is configured.
package store

import (
	"context"
	"errors"

	"github.com/warroomhq/warroom/internal/domain"
)

var ErrNotFound = errors.New("not found")

// CampaignStore persists campaign briefs and their generated content.
type CampaignStore interface {
	SaveCampaign(ctx context.Context, c *domain.Campaign) error
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context) ([]*domain.Campaign, error)
}

// RunStore persists completed dispatch runs with their full outcome logs.
type RunStore interface {
	SaveRun(ctx context.Context, run *domain.DispatchRun) error
	GetRun(ctx context.Context, id string) (*domain.DispatchRun, error)
	ListRuns(ctx context.Context, campaignID string) ([]*domain.DispatchRun, error)
}

// Store combines both persistence concerns behind one handle.
type Store interface {
	CampaignStore
	RunStore
}
