package memory

import (
	"sort"
	"sync"

	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.MemoryStore = &Store{}

// Store holds one SummaryBufferMemory per session, created on first use.
type Store struct {
	summarizer models.Summarizer
	counter    models.TokenCounter
	opts       Options

	mu       sync.Mutex
	sessions map[string]*SummaryBufferMemory
}

func NewStore(summarizer models.Summarizer, counter models.TokenCounter, opts Options) *Store {
	return &Store{
		summarizer: summarizer,
		counter:    counter,
		opts:       opts,
		sessions:   make(map[string]*SummaryBufferMemory),
	}
}

func (s *Store) Get(sessionID string) models.ConversationMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.sessions[sessionID]
	if !ok {
		m = NewSummaryBufferMemory(s.summarizer, s.counter, s.opts)
		s.sessions[sessionID] = m
		log.Debugf("created memory for session %s", sessionID)
	}
	return m
}

func (s *Store) Lookup(sessionID string) (models.ConversationMemory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return m, true
}

func (s *Store) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
