package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	DefaultOpenAIModel = openai.GPT3Dot5Turbo
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.1
)

// OpenAIOptions configures an OpenAIProvider
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string // Optional: OpenAI-compatible endpoint
	Temperature float32
	Timeout     time.Duration
	Retry       RetryConfig
}

// OpenAIProvider implements Client using the OpenAI chat completions API
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	retry       RetryConfig
	cache       *Cache
}

// NewOpenAIProvider creates a new OpenAI chat client
func NewOpenAIProvider(opts OpenAIOptions, cache *Cache) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry.MaxRetries <= 0 {
		opts.Retry = DefaultRetryConfig()
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		retry:       opts.Retry,
		cache:       cache,
	}, nil
}

func (o *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ValidateMessages(messages); err != nil {
		return "", err
	}

	hash := ComputeHash(o.model, messages)
	if o.cache != nil {
		if reply, ok := o.cache.Get(hash); ok {
			log.Debug().Str("model", o.model).Msg("chat cache hit")
			return reply, nil
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: o.temperature,
	}

	reply, err := retryWithBackoff(ctx, o.retry, func() (string, error) {
		return o.callAPI(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	if o.cache != nil {
		o.cache.Set(hash, reply)
	}

	return reply, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("model", req.Model).Msg("chat completion failed")
		if !retryable(err) {
			return "", permanent(err)
		}
		return "", err
	}

	log.Debug().
		Str("model", req.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("chat completion")

	if len(resp.Choices) == 0 {
		return NoResponse, nil
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return NoResponse, nil
	}
	return content, nil
}

// retryable reports whether an API failure may succeed on a later attempt.
// Client errors other than rate limiting are final.
func retryable(err error) bool {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests {
		return true
	}
	return status < 400 || status >= 500
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return result
}

func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIProvider) Model() string {
	return o.model
}

func (o *OpenAIProvider) Close() error {
	if o.cache != nil {
		o.cache.Clear()
	}
	return nil
}
