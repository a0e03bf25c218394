package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	queuePkg "github.com/DinomyteHero/Storyteller-V2-sub003/pkg/queue"
)

const turnQueueKey = "turn-requests"

// TurnQueue is the global queue of pending turn requests consumed by workers.
type TurnQueue struct {
	client *Client
}

func NewTurnQueue(client *Client) *TurnQueue {
	return &TurnQueue{client: client}
}

// EnqueueRequest adds a turn request to the global queue
func (tq *TurnQueue) EnqueueRequest(ctx context.Context, req *queuePkg.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := tq.client.rdb.RPush(ctx, turnQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// DequeueRequest removes and returns the next request from the global queue.
// Returns nil if the queue is empty.
func (tq *TurnQueue) DequeueRequest(ctx context.Context) (*queuePkg.Request, error) {
	result, err := tq.client.rdb.LPop(ctx, turnQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	req, err := queuePkg.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// BlockingDequeueRequest blocks up to timeout until a request is available.
// A nil request with nil error means the wait timed out or the context was
// cancelled; callers loop on that.
func (tq *TurnQueue) BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queuePkg.Request, error) {
	result, err := tq.client.rdb.BLPop(ctx, timeout, turnQueueKey).Result()
	if err != nil {
		if err == redis.Nil || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queuePkg.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// Depth returns the number of requests in the global queue
func (tq *TurnQueue) Depth(ctx context.Context) (int, error) {
	count, err := tq.client.rdb.LLen(ctx, turnQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get turn queue depth: %w", err)
	}
	return int(count), nil
}
