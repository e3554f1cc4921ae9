package llms

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.LLM = &OpenAILLM{}

func NewOpenAILLM(ctx context.Context, cfg *config.Config) (*OpenAILLM, error) {
	llm := &OpenAILLM{}
	err := llm.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// OpenAILLM calls the OpenAI chat endpoint through langchaingo.
type OpenAILLM struct {
	llm      *openai.Chat
	counter  *TiktokenCounter
	defaults []llms.CallOption
}

func (o *OpenAILLM) Init(_ context.Context, cfg *config.Config) error {
	counter, err := NewTiktokenCounter(cfg.Memory.TokenEncoding)
	if err != nil {
		return err
	}
	o.counter = counter

	options, err := o.configureClient(cfg)
	if err != nil {
		return err
	}

	llm, err := openai.NewChat(options...)
	if err != nil {
		return NewLLMError("failed to create openai client", err)
	}
	o.llm = llm
	o.defaults = defaultCallOptions(cfg)

	return nil
}

func (o *OpenAILLM) Call(ctx context.Context,
	messages []models.Message,
	options ...llms.CallOption,
) (string, error) {
	// If the LLM is not initialized, return an error
	if o.llm == nil {
		return "", NewLLMError(InvalidLLMModelError, nil)
	}

	callOptions := append(append([]llms.CallOption{}, o.defaults...), options...)

	completion, err := o.llm.Call(ctx, toChatMessages(messages), callOptions...)
	if err != nil {
		return "", err
	}

	return completion.GetContent(), nil
}

// GetTokenCount returns the number of tokens in the text
func (o *OpenAILLM) GetTokenCount(text string) (int, error) {
	return o.counter.GetTokenCount(text)
}

func (o *OpenAILLM) configureClient(cfg *config.Config) ([]openai.Option, error) {
	apiKey, err := getOpenAIAPIKey(cfg)
	if err != nil {
		return nil, err
	}

	options := GetBaseOpenAIClientOptions(cfg, apiKey)
	options = ConfigureOpenAIClientOptions(options, cfg)

	return options, nil
}

func toChatMessages(messages []models.Message) []schema.ChatMessage {
	chatMessages := make([]schema.ChatMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			chatMessages = append(chatMessages, schema.SystemChatMessage{Content: m.Content})
		case models.RoleAI:
			chatMessages = append(chatMessages, schema.AIChatMessage{Content: m.Content})
		default:
			chatMessages = append(chatMessages, schema.HumanChatMessage{Content: m.Content})
		}
	}
	return chatMessages
}
