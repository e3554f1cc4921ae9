package models

import "context"

const (
	RoleSystem = "system"
	RoleHuman  = "human"
	RoleAI     = "ai"
)

// Turn is a single question / answer exchange.
type Turn struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory is the context returned by ConversationMemory.Load. Messages begins with a
// system message carrying Summary when a summary exists.
type Memory struct {
	Summary    string    `json:"summary"`
	Messages   []Message `json:"messages"`
	TokenCount int       `json:"token_count"`
}

type ConversationMemory interface {
	// Load returns the retained context. It has no side effects.
	Load() Memory
	// Append records a turn, summarizing the oldest turns when over budget.
	Append(ctx context.Context, input, output string) error
}

// MemoryStore holds one ConversationMemory per session.
type MemoryStore interface {
	// Get returns the session's memory, creating it if needed.
	Get(sessionID string) ConversationMemory
	// Lookup returns the session's memory only if it exists.
	Lookup(sessionID string) (ConversationMemory, bool)
	Sessions() []string
}

type Summarizer interface {
	// Summarize folds lines into currentSummary, returning at most maxTokens tokens.
	Summarize(
		ctx context.Context,
		currentSummary string,
		lines []Message,
		maxTokens int,
	) (string, error)
}

type TokenCounter interface {
	GetTokenCount(text string) (int, error)
}
