package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

const DefaultMaxTokenLimit = 120

var log = internal.GetLogger()

var _ models.ConversationMemory = &SummaryBufferMemory{}

type Options struct {
	// MaxTokenLimit bounds the tokens retained across the summary and buffered turns.
	MaxTokenLimit int
	// SummaryMaxTokens caps the completion length requested from the summarizer.
	SummaryMaxTokens int
	// SummaryTimeout bounds each summarizer call. Zero means no timeout.
	SummaryTimeout time.Duration
}

// SummaryBufferMemory keeps the most recent turns verbatim and folds older turns
// into a rolling summary so the retained context stays within MaxTokenLimit.
//
// Appends are serialized per memory. The state lock is never held while the
// summarizer runs, so Load does not wait on an upstream call.
type SummaryBufferMemory struct {
	summarizer models.Summarizer
	counter    models.TokenCounter
	opts       Options

	appendMu sync.Mutex

	mu         sync.RWMutex
	turns      []models.Turn
	summary    string
	tokenCount int
}

func NewSummaryBufferMemory(
	summarizer models.Summarizer,
	counter models.TokenCounter,
	opts Options,
) *SummaryBufferMemory {
	if opts.MaxTokenLimit <= 0 {
		opts.MaxTokenLimit = DefaultMaxTokenLimit
	}
	return &SummaryBufferMemory{
		summarizer: summarizer,
		counter:    counter,
		opts:       opts,
	}
}

func (m *SummaryBufferMemory) Load() models.Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := make([]models.Message, 0, 2*len(m.turns)+1)
	if m.summary != "" {
		messages = append(messages, summaryMessage(m.summary))
	}
	for _, t := range m.turns {
		messages = append(messages, turnMessages(t)...)
	}

	return models.Memory{
		Summary:    m.summary,
		Messages:   messages,
		TokenCount: m.tokenCount,
	}
}

// Append adds a turn. When the retained context would exceed MaxTokenLimit the
// oldest turns are summarized away; the newest turn is always kept verbatim.
// If summarization fails the memory is left exactly as it was before the call.
func (m *SummaryBufferMemory) Append(ctx context.Context, input, output string) error {
	m.appendMu.Lock()
	defer m.appendMu.Unlock()

	m.mu.RLock()
	turns := make([]models.Turn, len(m.turns), len(m.turns)+1)
	copy(turns, m.turns)
	summary := m.summary
	m.mu.RUnlock()

	turns = append(turns, models.Turn{Input: input, Output: output})

	costs := make([]int, len(turns))
	bufferTokens := 0
	for i, t := range turns {
		c, err := m.turnTokens(t)
		if err != nil {
			return fmt.Errorf("failed to count turn tokens: %w", err)
		}
		costs[i] = c
		bufferTokens += c
	}

	summaryTokens, err := m.summaryTokens(summary)
	if err != nil {
		return fmt.Errorf("failed to count summary tokens: %w", err)
	}

	limit := m.opts.MaxTokenLimit
	if bufferTokens+summaryTokens <= limit {
		m.commit(turns, summary, bufferTokens+summaryTokens)
		return nil
	}

	// leave room for the summary when collapsing turns
	reserve := limit / 4
	pruned := 0
	for pruned < len(turns)-1 && bufferTokens > limit-reserve {
		bufferTokens -= costs[pruned]
		pruned++
	}

	allowance := limit - bufferTokens
	newSummary := summary

	switch {
	case allowance <= 0:
		// the newest turn alone exceeds the budget
		log.Warnf(
			"latest turn uses %d tokens, above the %d token memory limit; dropping summary",
			bufferTokens,
			limit,
		)
		newSummary = ""
	case pruned > 0:
		newSummary, err = m.summarize(ctx, summary, turns[:pruned], allowance)
		if err != nil {
			return models.NewSummarizationError("failed to summarize pruned turns", err)
		}
	}

	newSummary, summaryTokens, err = m.fitSummary(newSummary, allowance)
	if err != nil {
		return fmt.Errorf("failed to fit summary: %w", err)
	}

	m.commit(turns[pruned:], newSummary, bufferTokens+summaryTokens)

	return nil
}

func (m *SummaryBufferMemory) summarize(
	ctx context.Context,
	summary string,
	pruned []models.Turn,
	allowance int,
) (string, error) {
	lines := make([]models.Message, 0, 2*len(pruned))
	for _, t := range pruned {
		lines = append(lines, turnMessages(t)...)
	}

	maxTokens := allowance
	if m.opts.SummaryMaxTokens > 0 && m.opts.SummaryMaxTokens < maxTokens {
		maxTokens = m.opts.SummaryMaxTokens
	}

	if m.opts.SummaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.SummaryTimeout)
		defer cancel()
	}

	return m.summarizer.Summarize(ctx, summary, lines, maxTokens)
}

// fitSummary truncates summary at word boundaries until its message fits in allowance.
func (m *SummaryBufferMemory) fitSummary(summary string, allowance int) (string, int, error) {
	tokens, err := m.summaryTokens(summary)
	if err != nil {
		return "", 0, err
	}
	if tokens <= allowance {
		return summary, tokens, nil
	}

	words := strings.Fields(summary)
	var countErr error
	// largest prefix of words that still fits
	n := sort.Search(len(words)+1, func(i int) bool {
		if countErr != nil {
			return true
		}
		t, err := m.summaryTokens(strings.Join(words[:i], " "))
		if err != nil {
			countErr = err
			return true
		}
		return t > allowance
	}) - 1
	if countErr != nil {
		return "", 0, countErr
	}
	if n <= 0 {
		return "", 0, nil
	}

	truncated := strings.Join(words[:n], " ")
	tokens, err = m.summaryTokens(truncated)
	if err != nil {
		return "", 0, err
	}
	log.Debugf("summary truncated to %d tokens", tokens)

	return truncated, tokens, nil
}

func (m *SummaryBufferMemory) commit(turns []models.Turn, summary string, tokenCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = turns
	m.summary = summary
	m.tokenCount = tokenCount
}

func (m *SummaryBufferMemory) turnTokens(t models.Turn) (int, error) {
	total := 0
	for _, msg := range turnMessages(t) {
		c, err := m.counter.GetTokenCount(formatMessage(msg))
		if err != nil {
			return 0, err
		}
		total += c
	}
	return total, nil
}

func (m *SummaryBufferMemory) summaryTokens(summary string) (int, error) {
	if summary == "" {
		return 0, nil
	}
	return m.counter.GetTokenCount(formatMessage(summaryMessage(summary)))
}

func summaryMessage(summary string) models.Message {
	return models.Message{Role: models.RoleSystem, Content: summary}
}

func turnMessages(t models.Turn) []models.Message {
	return []models.Message{
		{Role: models.RoleHuman, Content: t.Input},
		{Role: models.RoleAI, Content: t.Output},
	}
}
