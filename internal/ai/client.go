package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/orbitlearn/orbit-server/internal/config"
)

// Client wraps the Gemini SDK with per-task sampling profiles. A client
// built without an API key stays usable; Generate then returns
// ErrNotConfigured so each feature can apply its fallback policy.
type Client struct {
	genai      *genai.Client
	cfg        config.GeminiConfig
	configured bool
}

func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if !cfg.Configured() {
		return &Client{cfg: cfg}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create client: %w", err)
	}

	return &Client{genai: client, cfg: cfg, configured: true}, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.configured
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// taskProfile holds per-task sampling overrides. Zero values fall back to
// the configured defaults.
type taskProfile struct {
	temperature float64
	maxTokens   int32
}

var taskProfiles = map[Task]taskProfile{
	TaskRoadmap: {temperature: 0.4, maxTokens: 6144},
	TaskQuiz:    {temperature: 0.6, maxTokens: 6144},
	TaskResume:  {temperature: 0.3},
	TaskVisual:  {temperature: 0.5, maxTokens: 4096},
	TaskVideo:   {temperature: 0.6, maxTokens: 12288},
}

func (c *Client) generationConfig(task Task) *genai.GenerateContentConfig {
	temperature := c.cfg.Temperature
	maxTokens := c.cfg.MaxOutputTokens

	if profile, ok := taskProfiles[task]; ok {
		if profile.temperature > 0 {
			temperature = profile.temperature
		}
		if profile.maxTokens > 0 {
			maxTokens = profile.maxTokens
		}
	}

	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		TopP:            genai.Ptr(float32(c.cfg.TopP)),
		TopK:            genai.Ptr(float32(c.cfg.TopK)),
		MaxOutputTokens: maxTokens,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
}

// Generate sends a fully assembled prompt to the model and classifies the
// outcome. On max_tokens truncation the partial text is returned together
// with the error so JSON callers can still attempt recovery.
func (c *Client) Generate(ctx context.Context, task Task, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), c.generationConfig(task))
	if err != nil {
		return "", fmt.Errorf("ai: generate %s: %w", task, err)
	}

	if len(resp.Candidates) > 0 {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonSafety:
			return "", &Error{Kind: KindSafetyFilter, Task: task}
		case genai.FinishReasonRecitation, genai.FinishReasonOther:
			return "", &Error{Kind: KindGenerationBlocked, Task: task}
		case genai.FinishReasonMaxTokens:
			partial := strings.TrimSpace(resp.Text())
			return partial, &Error{Kind: KindMaxTokens, Task: task}
		}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &Error{Kind: KindEmptyResponse, Task: task}
	}

	return text, nil
}
