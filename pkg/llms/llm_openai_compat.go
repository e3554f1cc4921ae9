package llms

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.LLM = &OpenAICompatLLM{}

func NewOpenAICompatLLM(ctx context.Context, cfg *config.Config) (*OpenAICompatLLM, error) {
	llm := &OpenAICompatLLM{}
	err := llm.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// OpenAICompatLLM talks to any OpenAI compatible chat completion endpoint, including
// fine-tuned models, using the go-openai client.
type OpenAICompatLLM struct {
	client   *openai.Client
	model    string
	counter  *TiktokenCounter
	defaults []llms.CallOption
}

func (o *OpenAICompatLLM) Init(_ context.Context, cfg *config.Config) error {
	counter, err := NewTiktokenCounter(cfg.Memory.TokenEncoding)
	if err != nil {
		return err
	}
	o.counter = counter

	apiKey, err := getOpenAIAPIKey(cfg)
	if err != nil {
		return err
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.LLM.OpenAIEndpoint != "" {
		clientConfig.BaseURL = cfg.LLM.OpenAIEndpoint
	}
	clientConfig.OrgID = cfg.LLM.OpenAIOrgID
	clientConfig.HTTPClient = NewRetryableHTTPClient(cfg.LLM.MaxRetries, cfg.LLM.Timeout)

	o.client = openai.NewClientWithConfig(clientConfig)
	o.model = cfg.LLM.Model
	o.defaults = defaultCallOptions(cfg)

	return nil
}

func (o *OpenAICompatLLM) Call(
	ctx context.Context,
	messages []models.Message,
	options ...llms.CallOption,
) (string, error) {
	if o.client == nil {
		return "", NewLLMError(InvalidLLMModelError, nil)
	}

	opts := llms.CallOptions{}
	for _, opt := range o.defaults {
		opt(&opts)
	}
	for _, opt := range options {
		opt(&opts)
	}

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toCompletionMessages(messages),
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAICompatLLM) GetTokenCount(text string) (int, error) {
	return o.counter.GetTokenCount(text)
}

func toCompletionMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case models.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case models.RoleAI:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
