package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAIResponsesAdapter calls an OpenAI-compatible /v1/responses endpoint.
type OpenAIResponsesAdapter struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *rateLimiter
}

func NewOpenAIResponsesAdapter(apiKey, baseURL, model string) *OpenAIResponsesAdapter {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/responses"
	}
	return &OpenAIResponsesAdapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: newRateLimiter(30),
	}
}

func (a *OpenAIResponsesAdapter) Name() string  { return "openai-responses" }
func (a *OpenAIResponsesAdapter) Enabled() bool { return a != nil && a.apiKey != "" }

func (a *OpenAIResponsesAdapter) GeneratePlan(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	if !a.limiter.allow(time.Now()) {
		return PlanResponse{}, fmt.Errorf("openai-responses: rate limit exceeded")
	}

	body := map[string]any{
		"model":             a.model,
		"input":             BuildPrompt(req),
		"temperature":       0.4,
		"max_output_tokens": 500,
	}
	var out struct {
		OutputText string `json:"output_text"`
	}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}
	if err := httpJSON(ctx, a.client, a.baseURL, headers, body, &out); err != nil {
		return PlanResponse{}, err
	}
	return PlanResponse{OrderedTaskIDs: parseTaskOrder(out.OutputText, req.TaskIDs)}, nil
}

// BedrockConverseAdapter calls a Bedrock-compatible converse endpoint,
// fronted by a simple HTTP gateway rather than the full AWS SDK signing
// flow. No adapter failure mode is allowed to block simulation progress.
type BedrockConverseAdapter struct {
	endpoint string
	modelID  string
	auth     string
	client   *http.Client
	limiter  *rateLimiter
}

func NewBedrockConverseAdapter(endpoint, modelID, auth string) *BedrockConverseAdapter {
	return &BedrockConverseAdapter{
		endpoint: endpoint,
		modelID:  modelID,
		auth:     auth,
		client:   &http.Client{Timeout: 20 * time.Second},
		limiter:  newRateLimiter(20),
	}
}

func (a *BedrockConverseAdapter) Name() string { return "bedrock-converse" }
func (a *BedrockConverseAdapter) Enabled() bool {
	return a != nil && a.endpoint != "" && a.modelID != ""
}

func (a *BedrockConverseAdapter) GeneratePlan(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	if !a.limiter.allow(time.Now()) {
		return PlanResponse{}, fmt.Errorf("bedrock-converse: rate limit exceeded")
	}

	body := map[string]any{
		"modelId":   a.modelID,
		"inputText": BuildPrompt(req),
	}
	var out struct {
		Output struct {
			Message struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"message"`
		} `json:"output"`
	}
	var headers map[string]string
	if a.auth != "" {
		headers = map[string]string{"Authorization": a.auth}
	}
	if err := httpJSON(ctx, a.client, a.endpoint, headers, body, &out); err != nil {
		return PlanResponse{}, err
	}
	var text string
	if len(out.Output.Message.Content) > 0 {
		text = out.Output.Message.Content[0].Text
	}
	return PlanResponse{OrderedTaskIDs: parseTaskOrder(text, req.TaskIDs)}, nil
}

// OllamaAdapter calls a local Ollama /api/generate endpoint. It is enabled
// by the presence of a configured host, independent of which model name
// ends up being requested.
type OllamaAdapter struct {
	baseURL        string
	hostConfigured bool
	model          string
	client         *http.Client
	limiter        *rateLimiter
}

func NewOllamaAdapter(baseURL, model string) *OllamaAdapter {
	hostConfigured := baseURL != ""
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaAdapter{
		baseURL:        baseURL,
		hostConfigured: hostConfigured,
		model:          model,
		client:         &http.Client{Timeout: 30 * time.Second},
		limiter:        newRateLimiter(60),
	}
}

func (a *OllamaAdapter) Name() string  { return "ollama" }
func (a *OllamaAdapter) Enabled() bool { return a != nil && a.hostConfigured }

func (a *OllamaAdapter) GeneratePlan(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	if !a.limiter.allow(time.Now()) {
		return PlanResponse{}, fmt.Errorf("ollama: rate limit exceeded")
	}

	body := map[string]any{
		"model":   a.model,
		"prompt":  BuildPrompt(req),
		"stream":  false,
		"options": map[string]any{"temperature": 0.4},
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := httpJSON(ctx, a.client, strings.TrimRight(a.baseURL, "/")+"/api/generate", nil, body, &out); err != nil {
		return PlanResponse{}, err
	}
	return PlanResponse{OrderedTaskIDs: parseTaskOrder(out.Response, req.TaskIDs)}, nil
}

// parseTaskOrder extracts a comma- or newline-separated task-ID ordering
// from free-form adapter text, keeping only IDs the request actually knows
// about and preserving their first-seen order. A malformed or empty
// response degrades to the original task order.
func parseTaskOrder(text string, knownIDs []string) []string {
	known := make(map[string]bool, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = true
	}

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ' ' || r == '\t'
	})

	seen := make(map[string]bool, len(fields))
	var ordered []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if known[f] && !seen[f] {
			ordered = append(ordered, f)
			seen[f] = true
		}
	}
	if len(ordered) == 0 {
		return append([]string{}, knownIDs...)
	}
	for _, id := range knownIDs {
		if !seen[id] {
			ordered = append(ordered, id)
			seen[id] = true
		}
	}
	return ordered
}
