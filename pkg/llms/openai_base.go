package llms

import (
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/introduceourtown/townrec/config"
)

const OpenAIAPIKeyNotSetError = "TOWNREC_OPENAI_API_KEY is not set" //nolint:gosec

func getOpenAIAPIKey(cfg *config.Config) (string, error) {
	apiKey := cfg.LLM.OpenAIAPIKey
	if apiKey == "" {
		return "", NewLLMError(OpenAIAPIKeyNotSetError, nil)
	}
	return apiKey, nil
}

func GetBaseOpenAIClientOptions(cfg *config.Config, apiKey string) []openai.Option {
	httpClient := NewRetryableHTTPClient(cfg.LLM.MaxRetries, cfg.LLM.Timeout)

	options := make([]openai.Option, 0)
	options = append(
		options,
		openai.WithHTTPClient(httpClient),
		openai.WithModel(cfg.LLM.Model),
		openai.WithToken(apiKey),
	)

	return options
}

func ConfigureOpenAIClientOptions(options []openai.Option, cfg *config.Config) []openai.Option {
	applyOption := func(cond bool, opts ...openai.Option) []openai.Option {
		if cond {
			return append(options, opts...)
		}
		return options
	}

	options = applyOption(cfg.LLM.OpenAIEndpoint != "",
		openai.WithBaseURL(cfg.LLM.OpenAIEndpoint),
	)

	options = applyOption(cfg.LLM.OpenAIOrgID != "",
		openai.WithOrganization(cfg.LLM.OpenAIOrgID),
	)

	return options
}
