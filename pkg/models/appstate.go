package models

import (
	"github.com/introduceourtown/townrec/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	LLMClient           LLM
	MemoryStore         MemoryStore
	Parser              Parser
	Recommender         Recommender
	RecommendationStore RecommendationStore
	TaskRouter          TaskRouter
	TaskPublisher       TaskPublisher
	PlaceFinder         PlaceFinder
	ReferenceProvider   ReferenceProvider
	Config              *config.Config
}
