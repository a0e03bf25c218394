package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// WorldStateHandler manages campaign lifecycle: each campaign carries one
// world state that the turn pipeline advances.
type WorldStateHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewWorldStateHandler(storage storage.Storage, logger *slog.Logger) *WorldStateHandler {
	return &WorldStateHandler{
		storage: storage,
		logger:  logger,
	}
}

// CreateCampaignRequest defines the request body for creating a new campaign
type CreateCampaignRequest struct {
	Setting string `json:"setting"` // Required: setting filename
}

// ServeHTTP handles HTTP requests for campaign operations
// Routes:
// POST /v1/worldstate         - Create new campaign
// GET /v1/worldstate/{id}     - Read campaign by ID
// PATCH /v1/worldstate/{id}   - Overlay world state fields
// DELETE /v1/worldstate/{id}  - Delete campaign by ID
func (h *WorldStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/worldstate")
	var campaignID uuid.UUID
	var err error

	if path != "" && path != "/" {
		idStr := strings.Trim(path, "/")
		campaignID, err = uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("Invalid campaign ID", "id", idStr, "error", err)
			h.writeError(w, http.StatusBadRequest, "Invalid campaign ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)

	case http.MethodGet:
		if campaignID == uuid.Nil {
			h.logger.Warn("GET request without campaign ID")
			h.writeError(w, http.StatusBadRequest, "Campaign ID is required for GET requests")
			return
		}
		h.handleRead(w, r, campaignID)

	case http.MethodPatch:
		if campaignID == uuid.Nil {
			h.writeError(w, http.StatusBadRequest, "Campaign ID is required for PATCH requests")
			return
		}
		h.handlePatch(w, r, campaignID)

	case http.MethodDelete:
		if campaignID == uuid.Nil {
			h.logger.Warn("DELETE request without campaign ID")
			h.writeError(w, http.StatusBadRequest, "Campaign ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, campaignID)

	default:
		h.logger.Warn("Method not allowed for worldstate endpoint", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, PATCH, DELETE")
	}
}

func (h *WorldStateHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func (h *WorldStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new campaign")

	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if req.Setting == "" {
		h.logger.Warn("Missing required field: setting")
		h.writeError(w, http.StatusBadRequest, "setting field is required")
		return
	}
	if strings.Contains(req.Setting, "..") || strings.ContainsAny(req.Setting, `/\`) {
		h.logger.Warn("Invalid setting filename", "setting", req.Setting)
		h.writeError(w, http.StatusBadRequest, "Invalid setting filename")
		return
	}
	if !strings.HasSuffix(req.Setting, ".json") {
		req.Setting += ".json"
	}

	s, err := h.storage.GetSetting(r.Context(), req.Setting)
	if err != nil {
		h.logger.Warn("Failed to load setting", "error", err, "setting", req.Setting)
		h.writeError(w, http.StatusBadRequest, "Failed to load setting: "+err.Error())
		return
	}

	c := campaign.New(req.Setting)
	if s.OpeningScene != "" {
		c.World.Scene.ID = s.OpeningScene
	}
	if s.OpeningPrompt != "" {
		c.ChatHistory = append(c.ChatHistory, chat.ChatMessage{
			Role:    chat.ChatRoleAgent,
			Content: s.OpeningPrompt,
		})
	}

	if err := h.storage.SaveCampaign(r.Context(), c.ID, c); err != nil {
		h.logger.Error("Failed to save new campaign", "error", err, "id", c.ID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	h.logger.Debug("Campaign created successfully", "id", c.ID.String(), "setting", req.Setting)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.logger.Error("Failed to encode campaign response", "error", err)
	}
}

func (h *WorldStateHandler) handleRead(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	c, err := h.storage.LoadCampaign(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to load campaign", "error", err, "id", campaignID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load campaign")
		return
	}

	if c == nil {
		h.logger.Warn("Campaign not found", "id", campaignID.String())
		h.writeError(w, http.StatusNotFound, "Campaign not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.logger.Error("Failed to encode campaign response", "error", err)
	}
}

// handlePatch merges the fields present in the request body onto the
// campaign's existing world state. Absent fields keep their current values;
// the normalizer repairs the merged result before it is saved, so a patched
// campaign is always structurally valid.
func (h *WorldStateHandler) handlePatch(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	c, err := h.storage.LoadCampaign(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to load campaign for patch", "error", err, "id", campaignID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load campaign")
		return
	}

	if c == nil {
		h.logger.Warn("Campaign not found for patch", "id", campaignID.String())
		h.writeError(w, http.StatusNotFound, "Campaign not found")
		return
	}

	var patch state.WorldState
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Warn("Invalid JSON in PATCH request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	merged := c.World
	if patch.Scene.ID != "" {
		merged.Scene.ID = patch.Scene.ID
	}
	if patch.Scene.BeatsRemaining != 0 {
		merged.Scene.BeatsRemaining = patch.Scene.BeatsRemaining
	}
	if len(patch.ActiveObjectives) > 0 {
		merged.ActiveObjectives = patch.ActiveObjectives
	}
	if len(patch.Extra) > 0 {
		if merged.Extra == nil {
			merged.Extra = make(map[string]json.RawMessage, len(patch.Extra))
		}
		for k, v := range patch.Extra {
			merged.Extra[k] = v
		}
	}
	c.World = state.Normalize(merged)

	if err := h.storage.SaveCampaign(r.Context(), campaignID, c); err != nil {
		h.logger.Error("Failed to save patched campaign", "error", err, "id", campaignID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to save campaign")
		return
	}

	h.logger.Info("Campaign patched successfully", "id", campaignID.String(), "scene_id", c.World.Scene.ID)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.logger.Error("Failed to encode patched campaign response", "error", err)
	}
}

func (h *WorldStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	if err := h.storage.DeleteCampaign(r.Context(), campaignID); err != nil {
		h.logger.Error("Failed to delete campaign", "error", err, "id", campaignID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to delete campaign")
		return
	}
	h.logger.Debug("Campaign deleted successfully", "id", campaignID.String())
	w.WriteHeader(http.StatusNoContent)
}
