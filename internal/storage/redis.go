package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/setting"
)

// CampaignTTL is how long an idle campaign stays in Redis before expiring.
const CampaignTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis for campaigns
// and the filesystem for static settings.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL uses the
// redis:// URL scheme.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  redis.NewClient(opt),
		logger:  logger,
		dataDir: dataDir,
	}, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Campaign operations (Redis-backed)

func campaignKey(id uuid.UUID) string {
	return "campaign:" + id.String()
}

func (r *RedisStorage) SaveCampaign(ctx context.Context, id uuid.UUID, c *campaign.Campaign) error {
	c.UpdatedAt = time.Now()

	data, err := json.Marshal(c)
	if err != nil {
		r.logger.Error("Failed to marshal campaign", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}

	if err := r.client.Set(ctx, campaignKey(id), string(data), CampaignTTL).Err(); err != nil {
		r.logger.Error("Failed to save campaign", "uuid", id, "error", err)
		return fmt.Errorf("failed to save campaign: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	cmd := r.client.Get(ctx, campaignKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Campaign not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load campaign", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		r.logger.Warn("Campaign not found", "uuid", id)
		return nil, nil
	}

	var c campaign.Campaign
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		r.logger.Error("Failed to unmarshal campaign", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal campaign: %w", err)
	}
	return &c, nil
}

func (r *RedisStorage) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, campaignKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete campaign", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// Setting operations (filesystem-backed)

func (r *RedisStorage) ListSettings(ctx context.Context) (map[string]string, error) {
	settingsDir := filepath.Join(r.dataDir, "settings")
	settings := make(map[string]string)

	err := filepath.WalkDir(settingsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read setting file", "path", path, "error", err)
			return nil
		}

		var s setting.Setting
		if err := json.Unmarshal(file, &s); err != nil {
			r.logger.Warn("Failed to unmarshal setting file", "path", path, "error", err)
			return nil
		}

		settings[s.Name] = filepath.Base(path)
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk settings directory", "error", err)
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	return settings, nil
}

func (r *RedisStorage) GetSetting(ctx context.Context, filename string) (*setting.Setting, error) {
	// Settings are keyed by bare filename only. Reject anything that could
	// escape the settings directory.
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return nil, fmt.Errorf("invalid setting filename: %s", filename)
	}

	path := filepath.Join(r.dataDir, "settings", filename)

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("setting not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to read setting file: %w", err)
	}

	var s setting.Setting
	if err := json.Unmarshal(file, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal setting: %w", err)
	}
	s.FileName = filename

	return &s, nil
}
