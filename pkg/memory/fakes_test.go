package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/models"
)

// wordCounter counts whitespace separated words as tokens.
type wordCounter struct{}

func (wordCounter) GetTokenCount(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

type summarizeCall struct {
	current   string
	lines     []models.Message
	maxTokens int
}

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   []summarizeCall
	result  string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSummarizer) Summarize(
	ctx context.Context,
	current string,
	lines []models.Message,
	maxTokens int,
) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, summarizeCall{current: current, lines: lines, maxTokens: maxTokens})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLLM struct {
	response string
	err      error
	messages []models.Message
	options  llms.CallOptions
}

func (f *fakeLLM) Call(
	_ context.Context,
	messages []models.Message,
	options ...llms.CallOption,
) (string, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.options)
	}
	return f.response, f.err
}

func (f *fakeLLM) GetTokenCount(text string) (int, error) {
	return wordCounter{}.GetTokenCount(text)
}

func (f *fakeLLM) Init(context.Context, *config.Config) error {
	return nil
}

var errUpstream = errors.New("upstream unavailable")
