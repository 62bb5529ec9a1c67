package mapper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
)

// LLM client defaults.
const (
	DefaultModel      = "gpt-4"
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2
)

// systemPrompt pins the model to its role; the response format is enforced
// separately through the request's response_format field.
const systemPrompt = "You are a Visio diagram conversion expert. Always respond with valid JSON."

// maxShapeTextLen bounds the text excerpt carried per shape in the prompt.
const maxShapeTextLen = 100

// LLMConfig holds configuration for the LLM mapper.
type LLMConfig struct {
	// APIKey authenticates against the endpoint. Required.
	APIKey string
	// Model is the chat model name.
	Model string
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string
	// Timeout bounds a single HTTP call.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a rate-limit, server,
	// or transport failure.
	MaxRetries int
}

// DefaultLLMConfig returns the default LLM mapper configuration. The API key
// stays empty: it has no usable default.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:      DefaultModel,
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
	}
}

// LLMConfigFromEnv builds an LLMConfig from OPENAI_API_KEY, LLM_MODEL,
// OPENAI_API_BASE, OPENAI_TIMEOUT (seconds), and OPENAI_MAX_RETRIES. Unset or
// unparsable variables fall back to the defaults.
func LLMConfigFromEnv() LLMConfig {
	config := DefaultLLMConfig()
	config.APIKey = os.Getenv("OPENAI_API_KEY")

	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.Model = model
	}

	if base := os.Getenv("OPENAI_API_BASE"); base != "" {
		config.BaseURL = base
	}

	if raw := os.Getenv("OPENAI_TIMEOUT"); raw != "" {
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds > 0 {
			config.Timeout = time.Duration(seconds * float64(time.Second))
		}
	}

	if raw := os.Getenv("OPENAI_MAX_RETRIES"); raw != "" {
		if retries, err := strconv.Atoi(raw); err == nil && retries >= 0 {
			config.MaxRetries = retries
		}
	}

	return config
}

// LLMMapper maps shapes to target masters with one chat-completions call
// against an OpenAI-compatible endpoint.
type LLMMapper struct {
	config     LLMConfig
	hc         *http.Client
	retryDelay time.Duration
}

// NewLLMMapper creates an LLMMapper. The API key is validated here so a
// misconfigured run fails before any network traffic.
func NewLLMMapper(config LLMConfig) (*LLMMapper, error) {
	if config.APIKey == "" {
		return nil, errors.New("missing OpenAI API key: set OPENAI_API_KEY or pass the key explicitly")
	}

	if config.Model == "" {
		config.Model = DefaultModel
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	if config.MaxRetries < 0 {
		config.MaxRetries = DefaultMaxRetries
	}

	return &LLMMapper{
		config:     config,
		hc:         &http.Client{Timeout: config.Timeout},
		retryDelay: time.Second,
	}, nil
}

// Chat-completions wire format (request and response subsets).
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// mappingResponse is the JSON document the model is asked to produce.
type mappingResponse struct {
	Mappings []shapeMapping `json:"mappings"`
}

type shapeMapping struct {
	OldShapeID    string `json:"old_shape_id"`
	OldMasterName string `json:"old_master_name"`
	NewMasterName string `json:"new_master_name"`
	Reason        string `json:"reason"`
}

// CreateMapping implements Mapper. Suggestions naming masters absent from the
// listing are dropped with a warning: they would otherwise surface later as a
// fatal rebuild error.
func (m *LLMMapper) CreateMapping(ctx context.Context, d *diagram.Diagram, masters *diagram.MastersFile, rep *diagnostic.Report) (diagram.Mapping, error) {
	content, err := m.complete(ctx, buildPrompt(d, masters))
	if err != nil {
		return nil, err
	}

	var parsed mappingResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}

	valid := make(map[string]bool, len(masters.Masters))
	for _, master := range masters.Masters {
		valid[master.Name] = true
	}

	mapping := diagram.Mapping{}

	for _, entry := range parsed.Mappings {
		if entry.OldShapeID == "" || entry.NewMasterName == "" {
			continue
		}

		if !valid[entry.NewMasterName] {
			rep.AddWarning(diagnostic.CodeUnknownMaster,
				fmt.Sprintf("model suggested master %q which is not in the target catalog; suggestion dropped", entry.NewMasterName),
				"", entry.OldShapeID)

			continue
		}

		mapping[entry.OldShapeID] = entry.NewMasterName
	}

	return mapping, nil
}

// complete performs the chat-completions call with bounded retries on
// rate-limit, server, and transport failures.
func (m *LLMMapper) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: m.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.3,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	url := strings.TrimRight(m.config.BaseURL, "/") + "/chat/completions"

	var lastErr error

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * m.retryDelay):
			}
		}

		content, retryable, err := m.send(ctx, url, body)
		if err == nil {
			return content, nil
		}

		if !retryable {
			return "", err
		}

		lastErr = err
	}

	return "", fmt.Errorf("chat completion failed after %d attempts: %w", m.config.MaxRetries+1, lastErr)
}

// send performs one HTTP attempt. The bool reports whether the failure is
// worth retrying.
func (m *LLMMapper) send(ctx context.Context, url string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to build chat request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}

		return "", true, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5

		return "", retryable, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", false, errors.New("chat response carries no content")
	}

	return parsed.Choices[0].Message.Content, false, nil
}

// buildPrompt renders the source shapes and the target master listing into
// the user prompt. Shapes without a master name carry no signal and are left
// out; shape text is truncated.
func buildPrompt(d *diagram.Diagram, masters *diagram.MastersFile) string {
	var shapes strings.Builder

	for _, page := range d.Pages {
		for _, shape := range page.Shapes {
			if shape.MasterName == nil || *shape.MasterName == "" {
				continue
			}

			text := shape.Text
			if runes := []rune(text); len(runes) > maxShapeTextLen {
				text = string(runes[:maxShapeTextLen])
			}

			fmt.Fprintf(&shapes, "- ID: %s, Master: %s, Text: %s\n", shape.ID, *shape.MasterName, text)
		}
	}

	var targets strings.Builder

	for _, master := range masters.Masters {
		fmt.Fprintf(&targets, "- %s: %s\n", master.Name, master.Description)
	}

	return fmt.Sprintf(`You are a Visio diagram converter. Your task is to map shapes from a source diagram to the best matching masters in a target style.

SOURCE SHAPES:
%s
AVAILABLE TARGET MASTERS:
%s
Please analyze each source shape and map it to the most appropriate target master based on:
1. Shape type and purpose (e.g., process, decision, data, etc.)
2. Text content and context
3. Common diagram conventions

Respond with a JSON object in this exact format:
{
  "mappings": [
    {
      "old_shape_id": "shape_id",
      "old_master_name": "original_master",
      "new_master_name": "target_master",
      "reason": "brief explanation"
    }
  ]
}

IMPORTANT: Only use master names that exist in the AVAILABLE TARGET MASTERS list above.
If no good match exists, map to the closest generic shape available.`, shapes.String(), targets.String())
}
