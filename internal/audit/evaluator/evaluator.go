package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4-turbo"

	// DefaultTimeout bounds one evaluation request. It deliberately
	// exceeds the capture timeout so a slow model response does not
	// fail an audit the page load already paid for.
	DefaultTimeout = 60 * time.Second
)

// Config holds evaluation service settings. An empty or placeholder
// APIKey selects the deterministic demo verdict instead of a remote call.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Evaluator turns a captured page into a Verdict, either by asking a
// vision-capable model or by synthesizing the fixed demo verdict.
type Evaluator struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// New creates an Evaluator from config, filling in defaults.
func New(cfg Config, logger *slog.Logger) *Evaluator {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{
		baseURL: baseURL,
		model:   model,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configured reports whether a usable evaluation credential is present.
// Placeholder keys left over from config templates count as absent.
func (e *Evaluator) Configured() bool {
	return e.apiKey != "" && !strings.Contains(e.apiKey, "XXXX")
}

// Evaluate produces a Verdict for the captured page. The mode is chosen
// by credential presence, never by any property of the page.
func (e *Evaluator) Evaluate(ctx context.Context, snapshot []byte, content domain.PageContent) (*domain.Verdict, error) {
	if !e.Configured() {
		e.logger.Info("Evaluating in demo mode, no credential configured")
		return DemoVerdict(), nil
	}
	return e.evaluateRemote(ctx, snapshot, content)
}

func (e *Evaluator) evaluateRemote(ctx context.Context, snapshot []byte, content domain.PageContent) (*domain.Verdict, error) {
	messages, err := buildMessages(snapshot, content)
	if err != nil {
		return nil, &domain.EvaluationError{Reason: "build request", Err: err}
	}

	payload, err := json.Marshal(chatRequest{
		Model:          e.model,
		Messages:       messages,
		MaxTokens:      1500,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, &domain.EvaluationError{Reason: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.EvaluationError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, &domain.EvaluationError{Reason: "transport", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.EvaluationError{Reason: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.EvaluationError{
			Reason: fmt.Sprintf("evaluation service returned status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, &domain.EvaluationError{Reason: "decode response envelope", Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &domain.EvaluationError{Reason: "response contains no choices"}
	}

	return ParseVerdict(completion.Choices[0].Message.Content)
}

// ParseVerdict decodes a model response body as the Verdict schema.
// A parse failure or a schema violation fails the evaluation outright;
// no local repair is attempted.
func ParseVerdict(content string) (*domain.Verdict, error) {
	var verdict domain.Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, &domain.EvaluationError{Reason: "parse verdict json", Err: err}
	}
	if err := verdict.Validate(); err != nil {
		return nil, &domain.EvaluationError{Reason: "invalid verdict", Err: err}
	}
	return &verdict, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
