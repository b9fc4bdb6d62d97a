package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// ChatRequest is a single-turn completion request
type ChatRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// ChatProvider sends completion requests to a language model.
// The analytics summarizer and the predictor narrative both speak this interface.
type ChatProvider interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Ensure OpenAIChat implements ChatProvider
var _ ChatProvider = (*OpenAIChat)(nil)

// OpenAIChat implements ChatProvider using the official OpenAI Go SDK
type OpenAIChat struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewOpenAIChat creates a rate-limited OpenAI chat client
func NewOpenAIChat(apiKey, model string, timeout time.Duration, requestsPerMin int) (*OpenAIChat, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key not configured")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if requestsPerMin <= 0 {
		requestsPerMin = 60
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIChat{
		client:  client,
		model:   openai.ChatModel(model),
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), requestsPerMin),
		log:     logger.Get().With("component", "openai_chat", "model", model),
	}, nil
}

// Complete sends a chat completion request and returns the response text
func (c *OpenAIChat) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if req.Prompt == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limiter wait")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.model,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	response, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion failed")
	}

	if len(response.Choices) == 0 {
		return "", errors.Wrapf(errors.ErrInternal, "no completion choices returned")
	}

	c.log.Debug("Chat completion",
		"prompt_length", len(req.Prompt),
		"tokens_used", response.Usage.TotalTokens)

	return response.Choices[0].Message.Content, nil
}
