package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mtl-tools/mtlkit/config"
)

// ---------------------------------------------------------------------------
// Request parameters
// ---------------------------------------------------------------------------

// Params are the model and sampling parameters of a single request. They
// are supplied per call: the second pass passes alternate Params instead
// of mutating any shared configuration, so there is nothing to restore
// afterwards and nothing to leak between concurrent file workers.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	MinP        float64
	TopP        *float64
	TopK        *int
}

// ParamsFrom builds the primary-model Params from the LLM settings.
func ParamsFrom(llm *config.LLMSettings) Params {
	p := Params{
		Model:       llm.Model,
		Temperature: llm.Temperature,
		MaxTokens:   llm.MaxTokens,
		TopP:        llm.TopP,
		TopK:        llm.TopK,
	}
	if llm.MinP != nil {
		p.MinP = *llm.MinP
	}
	return p
}

// ---------------------------------------------------------------------------
// Wire format (OpenAI chat completions)
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	MinP        float64       `json:"min_p"`
	TopP        *float64      `json:"top_p,omitempty"`
	TopK        *int          `json:"top_k,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client issues translation requests against an OpenAI-compatible chat
// completions endpoint. Transport failures (connection errors, timeouts,
// non-2xx statuses, malformed bodies) are retried up to retryAttempts
// times with a fixed delay, then reported as an error; the pipeline treats
// that error as "no translation", never as a crash.
//
// A Client is owned by one pipeline instance and is not safe for
// concurrent use.
type Client struct {
	apiURL       string
	apiKey       string
	systemPrompt string

	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	verbose       bool

	// One [DEBUG] line per requested model and one for the model the
	// server reports, to catch model-mismatch misconfiguration.
	requestedLogged map[string]bool
	servedLogged    bool
}

// NewClient builds a client from the LLM settings and the retry knobs of
// the translation settings.
func NewClient(llm *config.LLMSettings, retryAttempts int, retryDelay time.Duration, verbose bool) *Client {
	return &Client{
		apiURL:          llm.APIURL,
		apiKey:          llm.APIKey,
		systemPrompt:    llm.SystemPrompt,
		httpClient:      &http.Client{Timeout: llm.Timeout()},
		retryAttempts:   retryAttempts,
		retryDelay:      retryDelay,
		verbose:         verbose,
		requestedLogged: make(map[string]bool),
	}
}

// Call sends one translation request and returns the first completion's
// content, trimmed. On transport failure it retries with a fixed delay,
// then returns an error once attempts are exhausted.
func (c *Client) Call(ctx context.Context, p Params, userContent string) (string, error) {
	body, err := c.buildBody(p, userContent)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	if !c.requestedLogged[p.Model] {
		log.Printf("[DEBUG] requesting model: %s", p.Model)
		c.requestedLogged[p.Model] = true
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if attempt > 0 {
			if c.verbose {
				log.Printf("[WARN] LLM call failed: %v, retrying (attempt %d/%d)", lastErr, attempt, c.retryAttempts)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		text, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("LLM call failed after %d attempts: %w", c.retryAttempts+1, lastErr)
}

// Ping sends a single throwaway request with no retries. Used by the
// setup check to verify the endpoint is reachable and a model is loaded.
func (c *Client) Ping(ctx context.Context, p Params) (string, error) {
	if p.MaxTokens > 50 {
		p.MaxTokens = 50
	}
	body, err := c.buildBody(p, "テスト")
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	return c.doRequest(ctx, body)
}

func (c *Client) buildBody(p Params, userContent string) ([]byte, error) {
	req := chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: "Translate this to English: " + userContent},
		},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		MinP:        p.MinP,
		TopP:        p.TopP,
		TopK:        p.TopK,
	}
	return json.Marshal(req)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response has no choices: %s", truncate(string(respBody), 300))
	}

	if !c.servedLogged && parsed.Model != "" {
		log.Printf("[DEBUG] server using model: %s", parsed.Model)
		c.servedLogged = true
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// truncate shortens s for log/error output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
