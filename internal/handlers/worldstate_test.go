package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/setting"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testStorageWithSetting() *storage.MockStorage {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddSetting("sector_noir.json", &setting.Setting{
		Name:          "Sector Noir",
		FileName:      "sector_noir.json",
		Tone:          "hardboiled",
		Rating:        "PG-13",
		OpeningPrompt: "Rain streaks the dome glass as your tram pulls in.",
		OpeningScene:  "undercity-1",
	})
	return mockStorage
}

func TestWorldStateHandler_Create(t *testing.T) {
	mockStorage := testStorageWithSetting()
	handler := NewWorldStateHandler(mockStorage, testLogger())

	reqBody := `{"setting":"sector_noir.json"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/worldstate", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
	}

	var response campaign.Campaign
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.ID == uuid.Nil {
		t.Error("Expected non-nil campaign ID")
	}
	if response.World.Scene.ID != "undercity-1" {
		t.Errorf("Expected opening scene undercity-1, got %s", response.World.Scene.ID)
	}
	if response.World.Scene.BeatsRemaining != state.DefaultSceneBeats {
		t.Errorf("Expected %d beats, got %d", state.DefaultSceneBeats, response.World.Scene.BeatsRemaining)
	}
	if len(response.World.ActiveObjectives) != 1 {
		t.Errorf("Expected seed objective, got %d objectives", len(response.World.ActiveObjectives))
	}
	if len(response.ChatHistory) != 1 {
		t.Errorf("Expected opening prompt in chat history, got %d messages", len(response.ChatHistory))
	}
}

func TestWorldStateHandler_CreateErrors(t *testing.T) {
	mockStorage := testStorageWithSetting()
	handler := NewWorldStateHandler(mockStorage, testLogger())

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "missing setting",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown setting",
			body:           `{"setting":"nope.json"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "traversal in setting filename",
			body:           `{"setting":"../../secret"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "path separator in setting filename",
			body:           `{"setting":"settings/sector_noir"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/worldstate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestWorldStateHandler_ReadAndDelete(t *testing.T) {
	mockStorage := testStorageWithSetting()
	handler := NewWorldStateHandler(mockStorage, testLogger())

	c := campaign.New("sector_noir.json")
	if err := mockStorage.SaveCampaign(context.Background(), c.ID, c); err != nil {
		t.Fatalf("SaveCampaign: %v", err)
	}

	// Read
	req := httptest.NewRequest(http.MethodGet, "/v1/worldstate/"+c.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	// Read missing
	req = httptest.NewRequest(http.MethodGet, "/v1/worldstate/"+uuid.NewString(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing campaign, got %d", rr.Code)
	}

	// Read with bad ID
	req = httptest.NewRequest(http.MethodGet, "/v1/worldstate/not-a-uuid", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad ID, got %d", rr.Code)
	}

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/v1/worldstate/"+c.ID.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}

	loaded, err := mockStorage.LoadCampaign(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("LoadCampaign: %v", err)
	}
	if loaded != nil {
		t.Error("Expected campaign to be deleted")
	}
}

func TestWorldStateHandler_Patch(t *testing.T) {
	mockStorage := testStorageWithSetting()
	handler := NewWorldStateHandler(mockStorage, testLogger())

	c := campaign.New("sector_noir.json")
	if err := mockStorage.SaveCampaign(context.Background(), c.ID, c); err != nil {
		t.Fatalf("SaveCampaign: %v", err)
	}

	// A sparse patch: absent or zero fields keep their current values.
	reqBody := `{"scene":{"scene_id":"undercity-2","beats_remaining":0},"faction_standing":{"syndicate":-2}}`
	req := httptest.NewRequest(http.MethodPatch, "/v1/worldstate/"+c.ID.String(), strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var response campaign.Campaign
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.World.Scene.ID != "undercity-2" {
		t.Errorf("Expected scene undercity-2, got %s", response.World.Scene.ID)
	}
	if response.World.Scene.BeatsRemaining != state.DefaultSceneBeats {
		t.Errorf("Expected beats kept at %d, got %d", state.DefaultSceneBeats, response.World.Scene.BeatsRemaining)
	}
	if len(response.World.ActiveObjectives) != 1 {
		t.Errorf("Expected seed objective after patch, got %d", len(response.World.ActiveObjectives))
	}
	if _, ok := response.World.Extra["faction_standing"]; !ok {
		t.Error("Expected pass-through field to survive the patch")
	}
}

func TestWorldStateHandler_PatchPreservesExisting(t *testing.T) {
	mockStorage := testStorageWithSetting()
	handler := NewWorldStateHandler(mockStorage, testLogger())

	c := campaign.New("sector_noir.json")
	c.World.ActiveObjectives = []state.Objective{
		{
			ID:          "obj-main-1",
			Description: "Secure leverage in the current sector.",
			Status:      state.ObjectiveCompleted,
			Reward:      map[string]int{"credits": 25},
		},
		{
			ID:          "obj-main-2",
			Description: "Press the advantage gained in the previous push.",
			Status:      state.ObjectiveInProgress,
		},
	}
	c.World.Extra = map[string]json.RawMessage{
		"faction_standing": json.RawMessage(`{"syndicate":-2}`),
	}
	if err := mockStorage.SaveCampaign(context.Background(), c.ID, c); err != nil {
		t.Fatalf("SaveCampaign: %v", err)
	}

	// Patching the scene alone must not disturb objectives or pass-through
	// fields.
	reqBody := `{"scene":{"scene_id":"undercity-3","beats_remaining":2}}`
	req := httptest.NewRequest(http.MethodPatch, "/v1/worldstate/"+c.ID.String(), strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var response campaign.Campaign
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.World.Scene.ID != "undercity-3" {
		t.Errorf("Expected scene undercity-3, got %s", response.World.Scene.ID)
	}
	if response.World.Scene.BeatsRemaining != 2 {
		t.Errorf("Expected 2 beats, got %d", response.World.Scene.BeatsRemaining)
	}
	if len(response.World.ActiveObjectives) != 2 {
		t.Fatalf("Expected both objectives to survive the patch, got %d", len(response.World.ActiveObjectives))
	}
	if response.World.ActiveObjectives[0].Status != state.ObjectiveCompleted {
		t.Errorf("Expected completed objective to stay completed, got %s", response.World.ActiveObjectives[0].Status)
	}
	if response.World.ActiveObjectives[0].Reward["credits"] != 25 {
		t.Errorf("Expected reward to survive the patch, got %v", response.World.ActiveObjectives[0].Reward)
	}
	if _, ok := response.World.Extra["faction_standing"]; !ok {
		t.Error("Expected pass-through field to survive the patch")
	}
}

func TestSettingsHandler(t *testing.T) {
	mockStorage := testStorageWithSetting()
	handler := NewSettingsHandler(mockStorage, testLogger())

	// List
	req := httptest.NewRequest(http.MethodGet, "/v1/settings", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var list map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if list["Sector Noir"] != "sector_noir.json" {
		t.Errorf("Unexpected settings list: %v", list)
	}

	// Get one, extension optional
	req = httptest.NewRequest(http.MethodGet, "/v1/settings/sector_noir", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var s setting.Setting
	if err := json.NewDecoder(rr.Body).Decode(&s); err != nil {
		t.Fatalf("Failed to decode setting: %v", err)
	}
	if s.Name != "Sector Noir" {
		t.Errorf("Expected Sector Noir, got %s", s.Name)
	}

	// Missing
	req = httptest.NewRequest(http.MethodGet, "/v1/settings/nope.json", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	// Traversal in the filename
	req = httptest.NewRequest(http.MethodGet, "/v1/settings/..%2Fsecret", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for traversal, got %d", rr.Code)
	}

	// Wrong method
	req = httptest.NewRequest(http.MethodPost, "/v1/settings", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}
