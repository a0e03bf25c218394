package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
)

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
	if response.Components["storage"] != "healthy" {
		t.Errorf("Expected healthy storage component, got %v", response.Components["storage"])
	}
	if response.Service != "storyteller" {
		t.Errorf("Unexpected service name: %s", response.Service)
	}
}
