// Package llm implements the ordered decision-adapter chain consulted once
// per simulated day: an OpenAI-responses adapter, then a Bedrock-converse
// adapter, then an Ollama adapter, falling back to a local heuristic planner
// if every adapter is disabled or fails. Each adapter is a single-provider
// HTTP client with an in-memory per-minute rate limiter and an Enabled()
// capability check; the rate limiter is a sliding-window token bucket keyed
// by provider name.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brackenfield/commons-sim/internal/config"
)

// PlanRequest is the per-day context handed to every adapter.
type PlanRequest struct {
	ScenarioName    string
	Day             int
	SeasonName      string
	ResourceSummary string
	TaskIDs         []string
	PromptSuffix    string
}

// PlanResponse is an adapter's ordering of TaskIDs, most urgent first, plus
// the adapter name that produced it.
type PlanResponse struct {
	OrderedTaskIDs []string
	Source         string
}

// Adapter is one pluggable decision backend.
type Adapter interface {
	Name() string
	Enabled() bool
	GeneratePlan(ctx context.Context, req PlanRequest) (PlanResponse, error)
}

// Chain tries each adapter in order, skipping disabled ones, and falls back
// to a deterministic heuristic plan if every adapter is disabled or errors.
// Adapter failures never propagate to the caller.
type Chain struct {
	adapters []Adapter
	log      *slog.Logger
}

// NewChain builds the canonical OpenAI -> Bedrock -> Ollama fallback order.
func NewChain(log *slog.Logger, openai, bedrock, ollama Adapter) *Chain {
	return &Chain{adapters: []Adapter{openai, bedrock, ollama}, log: log}
}

// GeneratePlan consults each enabled adapter in order until one succeeds,
// otherwise returns the heuristic fallback plan (task IDs in their original
// order).
func (c *Chain) GeneratePlan(ctx context.Context, req PlanRequest) PlanResponse {
	for _, a := range c.adapters {
		if a == nil || !a.Enabled() {
			continue
		}
		resp, err := a.GeneratePlan(ctx, req)
		if err != nil {
			c.log.Warn("llm adapter failed, trying next", "adapter", a.Name(), "error", err)
			continue
		}
		resp.Source = a.Name()
		return resp
	}
	return PlanResponse{OrderedTaskIDs: append([]string{}, req.TaskIDs...), Source: "heuristic"}
}

// OrderTasksByPlan reorders cfg.Tasks to match resp.OrderedTaskIDs, appending
// any tasks the plan omitted at the end in their original order.
func OrderTasksByPlan(tasks []config.Task, resp PlanResponse) []config.Task {
	byID := make(map[string]config.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	seen := make(map[string]bool, len(tasks))
	ordered := make([]config.Task, 0, len(tasks))
	for _, id := range resp.OrderedTaskIDs {
		if t, ok := byID[id]; ok && !seen[id] {
			ordered = append(ordered, t)
			seen[id] = true
		}
	}
	for _, t := range tasks {
		if !seen[t.ID] {
			ordered = append(ordered, t)
			seen[t.ID] = true
		}
	}
	return ordered
}

// BuildPrompt assembles the plan request into the single-string prompt sent
// to completion-style adapters, terminated by the scenario's configured
// suffix.
func BuildPrompt(req PlanRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\nDay: %d\nSeason: %s\nResources: %s\nTasks: %s\n",
		req.ScenarioName, req.Day, req.SeasonName, req.ResourceSummary, strings.Join(req.TaskIDs, ", "))
	if req.PromptSuffix != "" {
		b.WriteString(req.PromptSuffix)
	}
	return b.String()
}

// rateLimiter is a sliding-window token bucket keyed by provider name.
type rateLimiter struct {
	maxPerMinute int
	window       []time.Time
}

func newRateLimiter(maxPerMinute int) *rateLimiter {
	return &rateLimiter{maxPerMinute: maxPerMinute}
}

func (rl *rateLimiter) allow(now time.Time) bool {
	cutoff := now.Add(-time.Minute)
	kept := rl.window[:0]
	for _, t := range rl.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rl.window = kept
	if len(rl.window) >= rl.maxPerMinute {
		return false
	}
	rl.window = append(rl.window, now)
	return true
}

// httpJSON posts body as JSON to url with the given headers and decodes the
// response into out.
func httpJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("adapter returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
