package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/services"
	redisqueue "github.com/DinomyteHero/Storyteller-V2-sub003/internal/services/queue"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/queue"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/setting"
)

func setupWorker(t *testing.T) (*Worker, *redisqueue.TurnQueue, *redisqueue.HintQueue, *storage.MockStorage, *campaign.Campaign) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))

	client, err := redisqueue.NewClient("redis://"+mr.Addr(), logger)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	turns := redisqueue.NewTurnQueue(client)
	hints := redisqueue.NewHintQueue(client)

	store := storage.NewMockStorage()
	store.AddSetting("sector_noir.json", &setting.Setting{
		Name:     "Sector Noir",
		FileName: "sector_noir.json",
	})
	c := campaign.New("sector_noir.json")
	if err := store.SaveCampaign(context.Background(), c.ID, c); err != nil {
		t.Fatalf("SaveCampaign: %v", err)
	}

	processor := NewTurnProcessor(store, services.NewMockNarrator(), hints, logger)
	return NewWorker(turns, hints, processor, logger), turns, hints, store, c
}

func TestWorkerProcessTurnRequest(t *testing.T) {
	w, turns, _, store, c := setupWorker(t)
	ctx := context.Background()

	err := turns.EnqueueRequest(ctx, &queue.Request{
		RequestID:  uuid.NewString(),
		Type:       queue.RequestTypeTurn,
		CampaignID: c.ID,
		Message:    "Knock on the door.",
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("EnqueueRequest: %v", err)
	}

	if err := w.processNextRequest(ctx); err != nil {
		t.Fatalf("processNextRequest: %v", err)
	}

	saved, err := store.LoadCampaign(ctx, c.ID)
	if err != nil || saved == nil {
		t.Fatalf("LoadCampaign: %v, %v", saved, err)
	}
	if saved.TurnNumber != 1 {
		t.Errorf("turn number = %d, want 1", saved.TurnNumber)
	}
	if len(saved.ChatHistory) != 2 {
		t.Errorf("chat history length = %d, want 2", len(saved.ChatHistory))
	}
}

func TestWorkerProcessHintRequest(t *testing.T) {
	w, turns, hints, _, c := setupWorker(t)
	ctx := context.Background()

	err := turns.EnqueueRequest(ctx, &queue.Request{
		RequestID:  uuid.NewString(),
		Type:       queue.RequestTypeHint,
		CampaignID: c.ID,
		Hint:       "A courier drone is circling the block.",
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("EnqueueRequest: %v", err)
	}

	if err := w.processNextRequest(ctx); err != nil {
		t.Fatalf("processNextRequest: %v", err)
	}

	formatted, err := hints.GetFormattedHints(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetFormattedHints: %v", err)
	}
	if formatted != "A courier drone is circling the block." {
		t.Errorf("unexpected hints: %q", formatted)
	}
}

func TestWorkerUnknownRequestType(t *testing.T) {
	w, turns, _, _, c := setupWorker(t)
	ctx := context.Background()

	err := turns.EnqueueRequest(ctx, &queue.Request{
		RequestID:  uuid.NewString(),
		Type:       queue.RequestType("bogus"),
		CampaignID: c.ID,
	})
	if err != nil {
		t.Fatalf("EnqueueRequest: %v", err)
	}

	if err := w.processNextRequest(ctx); err == nil {
		t.Fatal("expected error for unknown request type")
	}
}
