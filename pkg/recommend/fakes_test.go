package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/models"
)

type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	block    bool
	calls    [][]models.Message
}

func (f *fakeLLM) Call(
	ctx context.Context,
	messages []models.Message,
	_ ...llms.CallOption,
) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", errors.New("request canceled")
	}
	return f.response, f.err
}

func (f *fakeLLM) GetTokenCount(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (f *fakeLLM) Init(context.Context, *config.Config) error {
	return nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, string, []models.Message, int) (string, error) {
	return "", errors.New("summarizer down")
}

type publishedTask struct {
	topic    models.TaskTopic
	metadata map[string]string
	payload  any
}

type fakePublisher struct {
	published chan publishedTask
	err       error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(chan publishedTask, 10)}
}

func (f *fakePublisher) Publish(taskType models.TaskTopic, metadata map[string]string, payload any) error {
	f.published <- publishedTask{topic: taskType, metadata: metadata, payload: payload}
	return f.err
}

func (f *fakePublisher) Close() error {
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	items  map[string]*models.RecommendationResult
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string]*models.RecommendationResult{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (*models.RecommendationResult, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value *models.RecommendationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.items[key] = value
	return nil
}

type countingRecommender struct {
	calls  int
	result *models.RecommendationResult
	err    error
}

func (c *countingRecommender) Handle(
	context.Context,
	string,
	models.RequestContext,
) (*models.RecommendationResult, error) {
	c.calls++
	return c.result, c.err
}

type fakeReferences struct {
	refs     []models.ReferencePlace
	err      error
	keywords [][]string
}

func (f *fakeReferences) References(_ context.Context, keywords []string) ([]models.ReferencePlace, error) {
	f.keywords = append(f.keywords, keywords)
	return f.refs, f.err
}
