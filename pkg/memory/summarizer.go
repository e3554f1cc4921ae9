package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.Summarizer = &LLMSummarizer{}

// LLMSummarizer progressively folds conversation lines into a running summary.
type LLMSummarizer struct {
	llm models.LLM
}

func NewLLMSummarizer(llm models.LLM) *LLMSummarizer {
	return &LLMSummarizer{llm: llm}
}

func (s *LLMSummarizer) Summarize(
	ctx context.Context,
	currentSummary string,
	lines []models.Message,
	maxTokens int,
) (string, error) {
	if len(lines) == 0 {
		return currentSummary, nil
	}

	messageText := make([]string, len(lines))
	for i, m := range lines {
		messageText[i] = formatMessage(m)
	}

	progressivePrompt, err := internal.ParsePrompt(summaryPromptTemplate, SummaryPromptTemplateData{
		PrevSummary:    currentSummary,
		MessagesJoined: strings.Join(messageText, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render summary prompt: %w", err)
	}

	options := make([]llms.CallOption, 0, 1)
	if maxTokens > 0 {
		options = append(options, llms.WithMaxTokens(maxTokens))
	}

	summary, err := s.llm.Call(
		ctx,
		[]models.Message{{Role: models.RoleSystem, Content: progressivePrompt}},
		options...,
	)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(summary), nil
}

func formatMessage(m models.Message) string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
