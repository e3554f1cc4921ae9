package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/introduceourtown/townrec/pkg/models"
)

func newCompatServer(t *testing.T, status int, hits *int32, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "ft:gpt-3.5-turbo:townrec",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Mapo-gu: lively"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
		}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestOpenAICompatLLM_Call(t *testing.T) {
	var hits int32
	var seen openai.ChatCompletionRequest
	ts := newCompatServer(t, http.StatusOK, &hits, &seen)

	cfg := testConfig()
	cfg.LLM.Service = ServiceOpenAICompat
	cfg.LLM.Model = "ft:gpt-3.5-turbo:townrec"
	cfg.LLM.OpenAIEndpoint = ts.URL + "/v1"
	cfg.LLM.MaxTokens = 200

	llm, err := NewOpenAICompatLLM(context.Background(), cfg)
	require.NoError(t, err)

	result, err := llm.Call(context.Background(), []models.Message{
		{Role: models.RoleSystem, Content: "recommend neighborhoods"},
		{Role: models.RoleHuman, Content: "where should I live?"},
	}, llms.WithMaxTokens(50))
	require.NoError(t, err)

	assert.Equal(t, "Mapo-gu: lively", result)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, cfg.LLM.Model, seen.Model)
	assert.Equal(t, 50, seen.MaxTokens, "call options override configured defaults")
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, seen.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, seen.Messages[1].Role)
}

func TestOpenAICompatLLM_NoRetryByDefault(t *testing.T) {
	var hits int32
	ts := newCompatServer(t, http.StatusInternalServerError, &hits, nil)

	cfg := testConfig()
	cfg.LLM.OpenAIEndpoint = ts.URL + "/v1"

	llm, err := NewOpenAICompatLLM(context.Background(), cfg)
	require.NoError(t, err)

	_, err = llm.Call(context.Background(), []models.Message{{Role: models.RoleHuman, Content: "hi"}})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestToCompletionMessages(t *testing.T) {
	got := toCompletionMessages([]models.Message{
		{Role: models.RoleSystem, Content: "s"},
		{Role: models.RoleHuman, Content: "h"},
		{Role: models.RoleAI, Content: "a"},
	})
	assert.Equal(t, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "s"},
		{Role: openai.ChatMessageRoleUser, Content: "h"},
		{Role: openai.ChatMessageRoleAssistant, Content: "a"},
	}, got)
}
