package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 20 * time.Second
)

type Option func(*OpenAI)

func WithBaseURL(u string) Option {
	return func(o *OpenAI) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithModel(model string) Option {
	return func(o *OpenAI) { o.model = model }
}

// WithTimeout bounds each completion. It applies to a copy of any client
// given with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(o *OpenAI) { o.timeout = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *OpenAI) { o.http = c }
}

// NewOpenAI creates a chat-completions client. With an empty apiKey, every
// call returns ErrDisabled without touching the network.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	o := &OpenAI{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	if o.http != nil {
		c := *o.http
		hc = &c
	}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}
	o.http = hc

	if o.baseURL == "" {
		o.baseURL = DefaultBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = o.baseURL
	cfg.HTTPClient = hc
	o.client = openai.NewClientWithConfig(cfg)
	return o
}

type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	http    *http.Client
	client  *openai.Client
}

func (o *OpenAI) Enabled() bool { return o.apiKey != "" }

// StatusError is a non-2xx reply from the provider.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ai provider returned status %d", e.Status)
	}
	return fmt.Sprintf("ai provider returned status %d: %s", e.Status, e.Message)
}

func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	if !o.Enabled() {
		metrics.AIRequests.WithLabelValues("disabled").Inc()
		return "", ErrDisabled
	}

	reply, err := o.complete(ctx, system, prompt)
	switch {
	case err == nil:
		metrics.AIRequests.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrMalformedResponse):
		metrics.AIRequests.WithLabelValues("malformed").Inc()
	default:
		metrics.AIRequests.WithLabelValues("error").Inc()
	}
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("model", o.model).Msg("ai completion failed")
	}
	return reply, err
}

func (o *OpenAI) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps client errors onto StatusError and ErrMalformedResponse.
// The client decodes with encoding/json, so its decode failures are
// encoding/json types.
func classify(err error) error {
	var (
		apiErr    *openai.APIError
		reqErr    *openai.RequestError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0:
		return &StatusError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	case errors.As(err, &reqErr):
		return &StatusError{Status: reqErr.HTTPStatusCode}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	default:
		return fmt.Errorf("error calling ai provider: %w", err)
	}
}
