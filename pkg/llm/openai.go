package llm

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Settings configures the OpenAI-compatible backend (any provider speaking
// the chat-completions API works through BaseURL).
type Settings struct {
	Model   string
	APIKey  string
	BaseURL string
}

// OpenAIClient implements Client using the official openai-go SDK.
type OpenAIClient struct {
	model string
	opts  []option.RequestOption
}

func NewOpenAIClient(cfg Settings) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, &ProviderError{Fatal: true, Message: "api key missing; set llm.api_key or STORYCRAFT_API_KEY"}
	}
	if cfg.Model == "" {
		return nil, &ProviderError{Fatal: true, Message: "llm model is required"}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{model: cfg.Model, opts: opts}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(c.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Message: "empty choices in completion response", Err: err}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK errors onto the transient/fatal taxonomy. Auth and
// request-shape failures are fatal; rate limits, timeouts, and server errors
// are worth another attempt.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403, 404, 422:
			return &ProviderError{Fatal: true, Message: apierr.Error(), Err: err}
		default:
			return &ProviderError{Message: apierr.Error(), Err: err}
		}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}
