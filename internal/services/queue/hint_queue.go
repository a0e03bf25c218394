package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// HintQueue holds scene-transition hints per campaign. A hint produced by one
// turn's scene advancer is consumed by the next turn's prompt builder.
type HintQueue struct {
	client *Client
}

func NewHintQueue(client *Client) *HintQueue {
	return &HintQueue{client: client}
}

func hintKey(campaignID uuid.UUID) string {
	return fmt.Sprintf("scene-hints:%s", campaignID.String())
}

// Enqueue adds a hint to the end of the queue for a campaign
func (hq *HintQueue) Enqueue(ctx context.Context, campaignID uuid.UUID, hint string) error {
	if err := hq.client.rdb.RPush(ctx, hintKey(campaignID), hint).Err(); err != nil {
		return fmt.Errorf("failed to enqueue scene hint: %w", err)
	}
	return nil
}

// Dequeue removes and returns all queued hints for a campaign, oldest first
func (hq *HintQueue) Dequeue(ctx context.Context, campaignID uuid.UUID) ([]string, error) {
	key := hintKey(campaignID)

	hints, err := hq.client.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to dequeue scene hints: %w", err)
	}
	if len(hints) > 0 {
		if err := hq.client.rdb.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("failed to clear scene hint queue after dequeue: %w", err)
		}
	}
	return hints, nil
}

// Clear removes all hints for a campaign
func (hq *HintQueue) Clear(ctx context.Context, campaignID uuid.UUID) error {
	if err := hq.client.rdb.Del(ctx, hintKey(campaignID)).Err(); err != nil {
		return fmt.Errorf("failed to clear scene hint queue: %w", err)
	}
	return nil
}

// Depth returns the number of hints queued for a campaign
func (hq *HintQueue) Depth(ctx context.Context, campaignID uuid.UUID) (int, error) {
	count, err := hq.client.rdb.LLen(ctx, hintKey(campaignID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get hint queue depth: %w", err)
	}
	return int(count), nil
}

// GetFormattedHints drains the queue and returns all hints joined into a
// single prompt block, or an empty string when none are queued.
func (hq *HintQueue) GetFormattedHints(ctx context.Context, campaignID uuid.UUID) (string, error) {
	hints, err := hq.Dequeue(ctx, campaignID)
	if err != nil {
		return "", err
	}
	if len(hints) == 0 {
		return "", nil
	}
	return strings.Join(hints, "\n\n"), nil
}
