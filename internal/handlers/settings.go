package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
)

// SettingsHandler lists available campaign settings and serves individual
// setting files.
type SettingsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSettingsHandler(storage storage.Storage, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		storage: storage,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for settings
// Routes:
// GET /v1/settings           - List settings (name -> filename)
// GET /v1/settings/{file}    - Read one setting
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for settings endpoint", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed. Only GET is supported."}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/settings"), "/")
	if path == "" {
		h.handleList(w, r)
		return
	}
	if strings.Contains(path, "..") || strings.ContainsAny(path, `/\`) {
		h.logger.Warn("Invalid setting filename", "filename", path)
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid filename"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	h.handleGet(w, r, path)
}

func (h *SettingsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	settings, err := h.storage.ListSettings(r.Context())
	if err != nil {
		h.logger.Error("Failed to list settings", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to list settings"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(settings); err != nil {
		h.logger.Error("Failed to encode settings response", "error", err)
	}
}

func (h *SettingsHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	s, err := h.storage.GetSetting(r.Context(), filename)
	if err != nil {
		h.logger.Warn("Setting not found", "error", err, "filename", filename)
		w.WriteHeader(http.StatusNotFound)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Setting not found: " + filename}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode setting response", "error", err)
	}
}
