package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/setting"
)

// Storage defines a unified interface for all storage operations:
// campaign persistence (Redis) and static resource loading (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Campaign operations (Redis-backed)
	SaveCampaign(ctx context.Context, id uuid.UUID, c *campaign.Campaign) error
	LoadCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)
	DeleteCampaign(ctx context.Context, id uuid.UUID) error

	// Setting operations (filesystem-backed)
	ListSettings(ctx context.Context) (map[string]string, error)
	GetSetting(ctx context.Context, filename string) (*setting.Setting, error)
}
