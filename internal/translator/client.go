// Package translator gets ordered batches of strings translated by an
// external completion service and makes the result trustworthy: response
// shape is validated, empty or sentinel items are repaired, and transient
// failures are retried with bounded backoff.
//
// Results are associated with inputs purely by batch order and intra-batch
// array position. The service is trusted not to reorder elements within a
// batch; no fingerprint or index echo verifies this.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel literal the model is instructed to emit when it cannot produce
// a translation. Items equal to it fall back to their original input.
const NoTranslation = "NO TRANSLATION"

// Client is the translation collaborator: an ordered batch of strings in,
// an equally long ordered batch of translations out, or a failure.
type Client interface {
	Translate(ctx context.Context, batch []string) ([]string, error)
}

// Params carries the translation parameters sent with every request.
type Params struct {
	TargetLanguage string
	Tone           string
	Model          string
}

// RequestError is a classified failure from one service call. The retry
// driver inspects Retryable to decide whether another attempt is worth it.
type RequestError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("translation service (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("translation service: %s", e.Message)
}

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	params     Params
	httpClient *http.Client
}

// NewOpenAIClient creates a translation client for the given endpoint.
func NewOpenAIClient(baseURL, apiKey string, params Params, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		params:  params,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate sends one batch and returns the translated strings in input
// order. The returned slice always has len(batch) elements on success;
// anything else is reported as an error for the engine to retry.
func (c *OpenAIClient) Translate(ctx context.Context, batch []string) ([]string, error) {
	reqBody := chatRequest{
		Model: c.params.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt()},
			{Role: "user", Content: buildUserPrompt(batch)},
		},
		Temperature: 0.2,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("read response: %v", err), Retryable: true}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: string(respBody), Retryable: true}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	content, err := extractContent(respBody)
	if err != nil {
		return nil, err
	}

	translations, err := ParseTranslations(content)
	if err != nil {
		return nil, err
	}
	if len(translations) != len(batch) {
		return nil, &RequestError{
			Message:   fmt.Sprintf("got %d translations, expected %d", len(translations), len(batch)),
			Retryable: true,
		}
	}

	return translations, nil
}

func (c *OpenAIClient) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a professional localizer. Translate user-interface strings to ")
	sb.WriteString(c.params.TargetLanguage)
	sb.WriteString(".\n\nRules:\n")
	sb.WriteString("1. Tone and style: " + c.params.Tone + ".\n")
	sb.WriteString("2. Preserve ALL tokens of the form __T0__, __T1__, ... — copy them exactly as-is into your translation.\n")
	sb.WriteString("3. Do NOT add explanations, notes, or extra text.\n")
	sb.WriteString("4. If a string cannot be translated, return the exact literal " + NoTranslation + " for it.\n")
	sb.WriteString(`5. Respond with a JSON object of the form {"translations": ["...", ...]}.`)
	return sb.String()
}

func buildUserPrompt(batch []string) string {
	var sb strings.Builder
	sb.WriteString("Translate each of the following strings, keeping their order.\n\n")
	for i, s := range batch {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
	}
	sb.WriteString(fmt.Sprintf("\nReturn a JSON object {\"translations\": [...]} whose array has exactly %d strings.", len(batch)))
	return sb.String()
}

// extractContent locates the model text in the response. Primary location
// is choices[0].message.content; legacy completion endpoints put it in
// choices[0].text; as a last resort the raw body itself is handed to the
// translation parser.
func extractContent(respBody []byte) (string, error) {
	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &RequestError{Message: fmt.Sprintf("decode response: %v", err), Retryable: true}
	}
	if apiResp.Error != nil {
		return "", &RequestError{Message: fmt.Sprintf("%s: %s", apiResp.Error.Type, apiResp.Error.Message)}
	}

	if len(apiResp.Choices) > 0 {
		if content := apiResp.Choices[0].Message.Content; content != "" {
			return content, nil
		}
		if text := apiResp.Choices[0].Text; text != "" {
			return text, nil
		}
	}

	return string(respBody), nil
}
