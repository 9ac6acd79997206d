package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateRequest holds the parameters for an LLM generation call.
type GenerateRequest struct {
	Task         TaskType
	SystemPrompt string
	// History is sent between the system prompt and UserPrompt.
	History     []Message
	UserPrompt  string
	Temperature *float64 // nil uses task default
	MaxTokens   *int     // nil uses task default
}

func (r GenerateRequest) messages() []Message {
	msgs := make([]Message, 0, len(r.History)+2)
	if r.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: r.SystemPrompt})
	}
	msgs = append(msgs, r.History...)
	if r.UserPrompt != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: r.UserPrompt})
	}
	return msgs
}

// GenerateResponse holds the result of an LLM generation call.
type GenerateResponse struct {
	Text    string
	Model   string
	Latency time.Duration
}

// LLMClient provides access to a chat model.
type LLMClient interface {
	// Generate sends a prompt and returns the complete response text.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Stream sends a prompt with streaming enabled and calls onDelta for
	// every content fragment. The returned response holds the full text.
	Stream(ctx context.Context, req GenerateRequest, onDelta func(string)) (*GenerateResponse, error)

	// Available checks whether the endpoint is reachable.
	Available(ctx context.Context) bool
}

// chatClient talks to an OpenAI-compatible /chat/completions endpoint.
type chatClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewClient returns a client for cfg. A disabled config yields a client
// whose calls fail with ErrDisabled.
func NewClient(cfg LLMConfig, observer Observer) LLMClient {
	if !cfg.Enabled {
		return disabledClient{}
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &chatClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *chatClient) body(req GenerateRequest, stream bool) chatRequest {
	taskCfg := c.cfg.Tasks[req.Task]
	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    req.messages(),
		Temperature: taskCfg.Temperature,
		MaxTokens:   taskCfg.MaxTokens,
		Stream:      stream,
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		body.MaxTokens = *req.MaxTokens
	}
	return body
}

func (c *chatClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	body := c.body(req, false)

	var (
		lastErr  error
		attempts int
	)
	for attempts < 1+c.cfg.MaxRetries {
		attempts++
		resp, err := c.generateOnce(ctx, req.Task, body)
		if err == nil {
			latency := time.Since(start)
			c.observe(req.Task, latency, attempts, false, nil)
			return &GenerateResponse{Text: resp.text, Model: resp.model, Latency: latency}, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}

	if attempts > 1 {
		lastErr = fmt.Errorf("%w: %w", ErrRetryExhausted, lastErr)
	}
	c.observe(req.Task, time.Since(start), attempts, false, lastErr)
	return nil, lastErr
}

type completion struct {
	text  string
	model string
}

func (c *chatClient) generateOnce(ctx context.Context, task TaskType, body chatRequest) (*completion, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout(task))
	defer cancel()

	httpResp, err := c.post(actx, body)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer httpResp.Body.Close()

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		if actx.Err() != nil {
			return nil, classify(ctx, actx.Err())
		}
		return nil, fmt.Errorf("%w: decoding response: %v", ErrInvalidOutput, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrInvalidOutput)
	}
	return &completion{text: resp.Choices[0].Message.Content, model: resp.Model}, nil
}

func (c *chatClient) Stream(ctx context.Context, req GenerateRequest, onDelta func(string)) (*GenerateResponse, error) {
	start := time.Now()
	body := c.body(req, true)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout(req.Task))
	defer cancel()

	// retries only cover the request itself; once deltas flow the stream
	// is not restarted
	var (
		httpResp *http.Response
		err      error
		attempts int
	)
	for attempts < 1+c.cfg.MaxRetries {
		attempts++
		httpResp, err = c.post(ctx, body)
		if err == nil {
			break
		}
		err = classify(ctx, err)
		if !retryable(ctx, err) {
			break
		}
	}
	if err != nil {
		c.observe(req.Task, time.Since(start), attempts, true, err)
		return nil, err
	}
	defer httpResp.Body.Close()

	var text strings.Builder
	sse := NewSSEReader(httpResp.Body)
	for {
		delta, err := sse.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			err = classify(ctx, err)
			c.observe(req.Task, time.Since(start), attempts, true, err)
			return nil, err
		}
		text.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}

	latency := time.Since(start)
	c.observe(req.Task, latency, attempts, true, nil)
	return &GenerateResponse{Text: text.String(), Model: c.cfg.Model, Latency: latency}, nil
}

// post sends body and returns the response when the status is 200.
func (c *chatClient) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if body.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4<<10))
		return nil, &StatusError{Code: httpResp.StatusCode, Message: errorMessage(raw)}
	}
	return httpResp, nil
}

// errorMessage pulls the message out of a JSON error body, accepting both
// {"error": "..."} and {"error": {"message": "..."}}.
func errorMessage(raw []byte) string {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Error) > 0 {
		var s string
		if json.Unmarshal(body.Error, &s) == nil {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

func (c *chatClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *chatClient) observe(task TaskType, latency time.Duration, attempts int, streamed bool, err error) {
	c.observer.OnCallComplete(LLMCallEvent{
		Task:      task,
		Model:     c.cfg.Model,
		Latency:   latency,
		Attempts:  attempts,
		Streamed:  streamed,
		Success:   err == nil,
		ErrorCode: ErrorCode(err),
	})
}

// classify maps transport failures onto package sentinels. parent is the
// caller's context: its cancellation is reported as is and never retried.
func classify(parent context.Context, err error) error {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return err
	case parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded):
		return parent.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func retryable(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.transient()
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInvalidOutput)
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

// ErrorCode returns a stable short code for err, used in call events and
// metric labels.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrCreditsExhausted):
		return "CREDITS_EXHAUSTED"
	case errors.Is(err, ErrQuotaExceeded):
		return "QUOTA_EXCEEDED"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	case errors.Is(err, ErrDisabled):
		return "DISABLED"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

type disabledClient struct{}

func (disabledClient) Generate(context.Context, GenerateRequest) (*GenerateResponse, error) {
	return nil, ErrDisabled
}

func (disabledClient) Stream(context.Context, GenerateRequest, func(string)) (*GenerateResponse, error) {
	return nil, ErrDisabled
}

func (disabledClient) Available(context.Context) bool { return false }
