package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	msgNoResponse        = "(no response)"

	DefaultNarrateTemperature = 0.7
	DefaultNarrateMaxTokens   = 640
	DeltaMaxTokens            = 512
)

// OpenAIService implements Narrator against any OpenAI-compatible chat
// completions API.
type OpenAIService struct {
	apiKey           string
	baseURL          string
	modelName        string
	backendModelName string
	httpClient       *http.Client
}

var _ Narrator = (*OpenAIService)(nil)

type openAIResponseFormat struct {
	Type string `json:"type"` // "json_object" for delta extraction
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []chat.ChatMessage    `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Stream         bool                  `json:"stream"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIService creates a narrator backed by an OpenAI-compatible API.
// baseURL may be empty to use the hosted endpoint; modelName narrates,
// backendModelName does delta extraction.
func NewOpenAIService(apiKey, baseURL, modelName, backendModelName string) *OpenAIService {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIService{
		apiKey:           apiKey,
		baseURL:          strings.TrimRight(baseURL, "/"),
		modelName:        modelName,
		backendModelName: backendModelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// InitModel is a no-op for hosted APIs; models need no explicit loading.
func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (o *OpenAIService) chatCompletion(ctx context.Context, messages []chat.ChatMessage, modelName string, temperature float64, maxTokens int, responseFormat *openAIResponseFormat) (string, error) {
	req := openAIChatRequest{
		Model:          modelName,
		Messages:       messages,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		Stream:         false,
		ResponseFormat: responseFormat,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("chat completion error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return msgNoResponse, nil
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Narrate generates the narrated outcome of a turn.
func (o *OpenAIService) Narrate(ctx context.Context, messages []chat.ChatMessage) (*chat.TurnResponse, error) {
	content, err := o.chatCompletion(ctx, messages, o.modelName, DefaultNarrateTemperature, DefaultNarrateMaxTokens, nil)
	if err != nil {
		return nil, err
	}
	return &chat.TurnResponse{Narration: content}, nil
}

// ExtractDelta reduces a narrated turn to a structured state delta using the
// backend model at temperature zero.
func (o *OpenAIService) ExtractDelta(ctx context.Context, messages []chat.ChatMessage) (*state.StateDelta, string, error) {
	content, err := o.chatCompletion(ctx, messages, o.backendModelName, 0.0, DeltaMaxTokens,
		&openAIResponseFormat{Type: "json_object"})
	if err != nil {
		return nil, o.backendModelName, err
	}

	// Some models wrap the JSON in a fenced code block despite instructions.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var delta state.StateDelta
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &delta); err != nil {
		return nil, o.backendModelName, fmt.Errorf("failed to unmarshal state delta: %w", err)
	}
	return &delta, o.backendModelName, nil
}
