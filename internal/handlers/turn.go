package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/worker"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/queue"
)

// TurnEnqueuer pushes a turn request onto the shared queue for asynchronous
// processing by a worker.
type TurnEnqueuer interface {
	EnqueueRequest(ctx context.Context, req *queue.Request) error
}

// TurnHandler runs a turn for a campaign. With ?async=true the request is
// queued for a worker instead of processed in-line; the caller polls the
// campaign for the result.
type TurnHandler struct {
	processor *worker.TurnProcessor
	enqueuer  TurnEnqueuer
	logger    *slog.Logger
}

func NewTurnHandler(processor *worker.TurnProcessor, enqueuer TurnEnqueuer, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		processor: processor,
		enqueuer:  enqueuer,
		logger:    logger,
	}
}

// AsyncTurnResponse acknowledges a queued turn request.
type AsyncTurnResponse struct {
	RequestID  string    `json:"request_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Queued     bool      `json:"queued"`
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Warn("Invalid turn request", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("async") == "true" && h.enqueuer != nil {
		h.handleAsync(w, r, req)
		return
	}

	response, err := h.processor.ProcessTurn(r.Context(), req)
	if err != nil {
		h.logger.Error("Error processing turn", "error", err, "campaign_id", req.CampaignID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to process turn. Please try again.")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding turn response", "error", err)
	}
}

func (h *TurnHandler) handleAsync(w http.ResponseWriter, r *http.Request, req chat.TurnRequest) {
	queued := &queue.Request{
		RequestID:  uuid.NewString(),
		Type:       queue.RequestTypeTurn,
		CampaignID: req.CampaignID,
		Message:    req.Message,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := h.enqueuer.EnqueueRequest(r.Context(), queued); err != nil {
		h.logger.Error("Failed to enqueue turn request", "error", err, "campaign_id", req.CampaignID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to queue turn request")
		return
	}

	h.logger.Info("Turn request queued", "request_id", queued.RequestID, "campaign_id", req.CampaignID.String())
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(AsyncTurnResponse{
		RequestID:  queued.RequestID,
		CampaignID: req.CampaignID,
		Queued:     true,
	}); err != nil {
		h.logger.Error("Error encoding async turn response", "error", err)
	}
}

func (h *TurnHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
