package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
)

func completionResponse(content string) string {
	resp := map[string]interface{}{
		"id":    "cmpl-1",
		"model": "test-model",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestOpenAIService_Narrate(t *testing.T) {
	var gotAuth string
	var gotReq openAIChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("You slip into the shadows.")))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", server.URL, "narrate-model", "backend-model")
	resp, err := svc.Narrate(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "I hide."},
	})
	if err != nil {
		t.Fatalf("narrate failed: %v", err)
	}

	if resp.Narration != "You slip into the shadows." {
		t.Errorf("unexpected narration: %q", resp.Narration)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotReq.Model != "narrate-model" {
		t.Errorf("expected narrate model, got %q", gotReq.Model)
	}
	if gotReq.ResponseFormat != nil {
		t.Error("narration should not force a response format")
	}
}

func TestOpenAIService_ExtractDelta(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "plain json", content: `{"objective_updates":[{"id":"obj-main-1","note":"done"}]}`},
		{name: "fenced json", content: "```json\n{\"objective_updates\":[{\"id\":\"obj-main-1\",\"note\":\"done\"}]}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq openAIChatRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&gotReq)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(completionResponse(tt.content)))
			}))
			defer server.Close()

			svc := NewOpenAIService("test-key", server.URL, "narrate-model", "backend-model")
			delta, model, err := svc.ExtractDelta(context.Background(), nil)
			if err != nil {
				t.Fatalf("extract failed: %v", err)
			}

			if model != "backend-model" {
				t.Errorf("unexpected backend model: %q", model)
			}
			if !delta.HasObjectiveUpdate() {
				t.Errorf("objective update lost: %+v", delta)
			}
			if gotReq.Model != "backend-model" {
				t.Errorf("expected backend model in request, got %q", gotReq.Model)
			}
			if gotReq.Temperature != 0.0 {
				t.Errorf("delta extraction should run at temperature 0, got %v", gotReq.Temperature)
			}
			if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
				t.Errorf("expected json_object response format, got %+v", gotReq.ResponseFormat)
			}
		})
	}
}

func TestOpenAIService_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", server.URL, "narrate-model", "backend-model")
	if _, err := svc.Narrate(context.Background(), nil); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestOpenAIService_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cmpl-1","choices":[]}`))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", server.URL, "narrate-model", "backend-model")
	resp, err := svc.Narrate(context.Background(), nil)
	if err != nil {
		t.Fatalf("narrate failed: %v", err)
	}
	if resp.Narration != msgNoResponse {
		t.Errorf("expected %q placeholder, got %q", msgNoResponse, resp.Narration)
	}
}
