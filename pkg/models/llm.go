package models

import (
	"context"

	"github.com/introduceourtown/townrec/config"

	"github.com/tmc/langchaingo/llms"
)

type LLM interface {
	// Call runs a chat completion over the given messages and returns the reply text
	Call(
		ctx context.Context,
		messages []Message,
		options ...llms.CallOption,
	) (string, error)
	// GetTokenCount returns the number of tokens in the given text
	GetTokenCount(text string) (int, error)
	// Init initializes the LLM
	Init(ctx context.Context, cfg *config.Config) error
}
