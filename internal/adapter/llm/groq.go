package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"
)

const (
	maxRetryAfter = 10 * time.Second
	baseBackoff   = time.Second
)

// GroqConfig configures a GroqClient.
type GroqConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	FallbackModel string
	// Timeout bounds a single upstream call.
	Timeout time.Duration
	// MaxRetries is the number of retries after a 429 answer.
	MaxRetries int
	HTTPClient *http.Client
	Breaker    *Breaker
}

// GroqClient calls Groq's OpenAI-compatible chat completion endpoint.
type GroqClient struct {
	client        openai.Client
	model         string
	fallbackModel string
	timeout       time.Duration
	maxRetries    int
	breaker       *Breaker
	sleep         func(ctx context.Context, d time.Duration) error
	logger        *zap.Logger
}

// NewGroqClient creates a client. Retries are handled here, not by the SDK.
func NewGroqClient(cfg GroqConfig, logger *zap.Logger) *GroqClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = NewBreaker(5, 30*time.Second)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"))
	}
	return &GroqClient{
		client:        openai.NewClient(opts...),
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		breaker:       breaker,
		sleep:         sleepContext,
		logger:        logger,
	}
}

// CreateChatCompletion sends req to the primary model, retrying on 429, and
// makes one attempt with the fallback model when the primary keeps failing
// with 429 or 5xx.
func (c *GroqClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	resp, err := c.completeWithRetry(ctx, c.model, req)
	if err != nil && c.fallbackModel != "" && c.fallbackModel != c.model && ctx.Err() == nil && fallbackWorthy(err) {
		c.logger.Warn("primary model failed, trying fallback",
			zap.String("model", c.model),
			zap.String("fallback_model", c.fallbackModel),
			zap.Error(err))
		resp, err = c.complete(ctx, c.fallbackModel, req)
	}
	if err != nil {
		c.breaker.Failure()
		if statusOf(err) == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, err
	}
	c.breaker.Success()
	return resp, nil
}

func (c *GroqClient) completeWithRetry(ctx context.Context, model string, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.complete(ctx, model, req)
		if err == nil {
			return resp, nil
		}
		if statusOf(err) != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return nil, err
		}

		delay := baseBackoff << attempt
		if ra := retryAfter(err); ra > 0 {
			delay = ra
		}
		if delay > maxRetryAfter {
			delay = maxRetryAfter
		}
		c.logger.Info("llm rate limited, retrying",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *GroqClient) complete(ctx context.Context, model string, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSONObject {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	observeRequest(model, start, err)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	return &ChatCompletionResponse{
		Model:   completion.Model,
		Content: completion.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}, nil
}

func toMessages(msgs []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// statusOf returns the HTTP status of an upstream error, or 0.
func statusOf(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func fallbackWorthy(err error) bool {
	status := statusOf(err)
	return status == http.StatusTooManyRequests || status >= 500
}

// retryAfter reads the Retry-After header of a 429 answer, in seconds.
func retryAfter(err error) time.Duration {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return 0
	}
	secs, convErr := strconv.ParseFloat(apiErr.Response.Header.Get("Retry-After"), 64)
	if convErr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
