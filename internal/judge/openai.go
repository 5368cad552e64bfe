package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const promptTemplate = `You are an AI arbitrator for a betting platform. You need to determine if the following bet should resolve as TRUE (yes) or FALSE (no).

Bet Title: %s
Bet Description: %s
Deadline: %s

Based on publicly available information and the description provided, determine if this bet should resolve as TRUE or FALSE.

Provide your decision as a JSON object with:
{
  "decision": true/false,
  "reasoning": "Brief explanation of your decision"
}

Be objective and base your decision on verifiable facts when possible.`

// OpenAIClient asks an OpenAI-compatible chat completions endpoint
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	limiter    *rate.Limiter
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type verdictJSON struct {
	Decision  *bool  `json:"decision"`
	Reasoning string `json:"reasoning"`
}

// NewOpenAIClient creates a client. Every call is bounded by timeout and
// calls are spaced by ratePerSecond (no limit when <= 0).
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration, ratePerSecond float64) *OpenAIClient {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &OpenAIClient{
		httpClient: &http.Client{
			Timeout: timeout + 5*time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// JudgeOutcome sends the bet to the model and parses its JSON verdict
func (c *OpenAIClient) JudgeOutcome(ctx context.Context, q Question) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return Verdict{}, fmt.Errorf("judge rate limit: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: fmt.Sprintf(promptTemplate, q.Title, q.Description, q.Deadline.UTC().Format(time.RFC3339)),
		}},
		Temperature:    0.1,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to call judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Verdict{}, fmt.Errorf("judge API error: %d - %s", resp.StatusCode, string(raw))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Verdict{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return Verdict{}, fmt.Errorf("judge returned no choices")
	}

	return parseVerdict(result.Choices[0].Message.Content)
}

// parseVerdict reads {"decision": bool, "reasoning": string}, tolerating a
// surrounding markdown code fence.
func parseVerdict(content string) (Verdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v verdictJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return Verdict{}, fmt.Errorf("judge returned malformed verdict: %w", err)
	}
	if v.Decision == nil {
		return Verdict{}, fmt.Errorf("judge verdict has no decision")
	}
	reasoning := strings.TrimSpace(v.Reasoning)
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	return Verdict{Decision: *v.Decision, Reasoning: reasoning}, nil
}
