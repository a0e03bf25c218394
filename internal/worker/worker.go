package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redisqueue "github.com/DinomyteHero/Storyteller-V2-sub003/internal/services/queue"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/queue"
)

const dequeueBlock = 5 * time.Second

// Worker consumes turn requests from the shared queue and processes them
// with a TurnProcessor. Responses are not returned to a caller; the
// resulting campaign state is visible through storage on the next read.
type Worker struct {
	turns     *redisqueue.TurnQueue
	hints     *redisqueue.HintQueue
	processor *TurnProcessor
	logger    *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewWorker(turns *redisqueue.TurnQueue, hints *redisqueue.HintQueue, processor *TurnProcessor, logger *slog.Logger) *Worker {
	return &Worker{
		turns:     turns,
		hints:     hints,
		processor: processor,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the consume loop until Stop is called or the context is
// cancelled. It blocks; run it in a goroutine if the caller needs to do
// anything else.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.doneCh)
	w.logger.Info("Worker started")

	for {
		select {
		case <-w.stopCh:
			w.logger.Info("Worker stopping")
			return
		case <-ctx.Done():
			w.logger.Info("Worker context cancelled")
			return
		default:
		}

		if err := w.processNextRequest(ctx); err != nil {
			w.logger.Error("Error processing queue request", "error", err)
			// Back off briefly so a broken queue doesn't spin the loop
			time.Sleep(time.Second)
		}
	}
}

// Stop signals the consume loop to exit and waits for the in-flight
// request, if any, to finish.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *Worker) processNextRequest(ctx context.Context) error {
	req, err := w.turns.BlockingDequeueRequest(ctx, dequeueBlock)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		return nil // timed out, loop again
	}

	logger := w.logger.With("request_id", req.RequestID, "campaign_id", req.CampaignID.String())
	logger.Debug("Dequeued request", "type", req.Type)

	switch req.Type {
	case queue.RequestTypeHint:
		// Externally injected scene hint; goes straight to the hint queue
		// for the campaign's next turn.
		if err := w.hints.Enqueue(ctx, req.CampaignID, req.Hint); err != nil {
			return fmt.Errorf("failed to enqueue hint: %w", err)
		}
		return nil

	case queue.RequestTypeTurn:
		start := time.Now()
		resp, err := w.processor.ProcessTurn(ctx, chat.TurnRequest{
			CampaignID: req.CampaignID,
			Message:    req.Message,
		})
		if err != nil {
			return fmt.Errorf("failed to process turn: %w", err)
		}
		logger.Info("Processed turn",
			"turn", resp.TurnNumber,
			"scene_id", resp.SceneID,
			"duration", time.Since(start).String())
		return nil

	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}
}
