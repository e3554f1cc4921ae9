package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/introduceourtown/townrec/pkg/memory"
	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/parser"
)

const colonAnswer = `Yeonnam-dong: quiet streets near the park
Seongsu-dong: cafes and workshops
Mangwon-dong: local markets
Keywords: quiet, cafes, park`

func ptr[T any](v T) *T {
	return &v
}

func newTestService(
	t *testing.T,
	llm models.LLM,
	summarizer models.Summarizer,
	publisher models.TaskPublisher,
	opts Options,
) (*Service, *memory.Store) {
	t.Helper()
	p, err := parser.New(parser.Options{Mode: models.ParseModeSingleLineColon})
	require.NoError(t, err)
	store := memory.NewStore(summarizer, llm, memory.Options{MaxTokenLimit: 500})
	return NewService(llm, store, p, publisher, opts), store
}

func TestFormatPrompt(t *testing.T) {
	s := NewService(&fakeLLM{}, nil, nil, nil, Options{})

	tests := []struct {
		name string
		req  models.RequestContext
		want string
	}{
		{
			name: "question only",
			req:  models.RequestContext{Question: "quiet area?"},
			want: "Question: quiet area?",
		},
		{
			name: "region and radius",
			req: models.RequestContext{
				Question: "quiet area?",
				Region:   ptr("Seoul"),
				Radius:   ptr(2.5),
			},
			want: "Region: Seoul, Radius: 2.5km, Question: quiet area?",
		},
		{
			name: "zero radius is kept",
			req:  models.RequestContext{Question: "q", Radius: ptr(0.0)},
			want: "Radius: 0km, Question: q",
		},
		{
			name: "blank region is dropped",
			req:  models.RequestContext{Question: "q", Region: ptr("  ")},
			want: "Question: q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FormatPrompt(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPrompt_CustomTemplate(t *testing.T) {
	s := NewService(&fakeLLM{}, nil, nil, nil, Options{
		QuestionTemplate: `{{ .Question | upper }} ({{ default "anywhere" .Region }})`,
	})

	got, err := s.FormatPrompt(models.RequestContext{Question: "parks"})
	require.NoError(t, err)
	assert.Equal(t, "PARKS (anywhere)", got)
}

func TestService_Handle(t *testing.T) {
	llm := &fakeLLM{response: colonAnswer}
	s, store := newTestService(t, llm, failingSummarizer{}, nil, Options{})

	req := models.RequestContext{Question: "quiet with cafes", Region: ptr("Seoul"), Radius: ptr(3.0)}
	result, err := s.Handle(context.Background(), "s1", req)
	require.NoError(t, err)

	assert.Equal(t, colonAnswer, result.RawAnswer)
	assert.Equal(t, []string{"quiet", "cafes", "park"}, result.Keywords)
	require.Len(t, result.Recommendations, 3)
	assert.Equal(t, models.Recommendation{
		Location:    "Yeonnam-dong",
		Description: "quiet streets near the park",
	}, result.Recommendations[0])
	assert.False(t, result.Cached)

	require.Len(t, llm.calls, 1)
	sent := llm.calls[0]
	require.Len(t, sent, 2)
	assert.Equal(t, models.Message{Role: models.RoleSystem, Content: singleLineColonPrompt}, sent[0])
	assert.Equal(t, models.Message{
		Role:    models.RoleHuman,
		Content: "Region: Seoul, Radius: 3km, Question: quiet with cafes",
	}, sent[1])

	mem, ok := store.Lookup("s1")
	require.True(t, ok)
	loaded := mem.Load()
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, colonAnswer, loaded.Messages[1].Content)
}

func TestService_HandleUsesHistory(t *testing.T) {
	llm := &fakeLLM{response: colonAnswer}
	s, _ := newTestService(t, llm, failingSummarizer{}, nil, Options{})

	_, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "first"})
	require.NoError(t, err)
	_, err = s.Handle(context.Background(), "s1", models.RequestContext{Question: "second"})
	require.NoError(t, err)
	_, err = s.Handle(context.Background(), "other", models.RequestContext{Question: "third"})
	require.NoError(t, err)

	require.Len(t, llm.calls, 3)
	second := llm.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, "Question: first", second[1].Content)
	assert.Equal(t, colonAnswer, second[2].Content)
	assert.Len(t, llm.calls[2], 2, "sessions are isolated")
}

func TestService_EmptyQuestion(t *testing.T) {
	llm := &fakeLLM{response: colonAnswer}
	s, _ := newTestService(t, llm, failingSummarizer{}, nil, Options{})

	_, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "   "})
	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Equal(t, 0, llm.callCount())
}

func TestService_UpstreamFailure(t *testing.T) {
	llm := &fakeLLM{err: assert.AnError}
	s, store := newTestService(t, llm, failingSummarizer{}, nil, Options{})

	_, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "q"})
	assert.ErrorIs(t, err, models.ErrUpstreamCompletion)
	assert.ErrorIs(t, err, assert.AnError)

	mem, ok := store.Lookup("s1")
	require.True(t, ok)
	assert.Empty(t, mem.Load().Messages, "memory is untouched on upstream failure")
}

func TestService_UpstreamTimeout(t *testing.T) {
	llm := &fakeLLM{block: true}
	s, _ := newTestService(t, llm, failingSummarizer{}, nil, Options{Timeout: 20 * time.Millisecond})

	_, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "q"})
	assert.ErrorIs(t, err, models.ErrUpstreamCompletion)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_AmbiguousAnswerStillReturned(t *testing.T) {
	llm := &fakeLLM{response: "I am not sure what to suggest"}
	s, _ := newTestService(t, llm, failingSummarizer{}, nil, Options{})

	result, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "I am not sure what to suggest", result.RawAnswer)
	assert.Empty(t, result.Keywords)
	assert.NotNil(t, result.Keywords)
	assert.Empty(t, result.Recommendations)
	assert.NotNil(t, result.Recommendations)
}

func TestService_SummarizationFailureIsNotFatal(t *testing.T) {
	llm := &fakeLLM{response: colonAnswer}
	p, err := parser.New(parser.Options{})
	require.NoError(t, err)
	// a tiny budget forces summarization on the second turn
	store := memory.NewStore(failingSummarizer{}, llm, memory.Options{MaxTokenLimit: 30})
	s := NewService(llm, store, p, nil, Options{})

	_, err = s.Handle(context.Background(), "s1", models.RequestContext{Question: "first"})
	require.NoError(t, err)
	before := store.Get("s1").Load()

	result, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "second"})
	require.NoError(t, err)
	assert.Equal(t, colonAnswer, result.RawAnswer)
	assert.Equal(t, before, store.Get("s1").Load())
}

func TestService_PublishesRecord(t *testing.T) {
	llm := &fakeLLM{response: colonAnswer}
	publisher := newFakePublisher()
	s, _ := newTestService(t, llm, failingSummarizer{}, publisher, Options{Persist: true})

	req := models.RequestContext{Question: "quiet", Region: ptr("Seoul")}
	_, err := s.Handle(context.Background(), "s1", req)
	require.NoError(t, err)

	select {
	case task := <-publisher.published:
		assert.Equal(t, models.RecommendationPersistTopic, task.topic)
		assert.Equal(t, "s1", task.metadata["session_id"])
		record, ok := task.payload.(*models.RecommendationRecord)
		require.True(t, ok)
		assert.Equal(t, "quiet", record.Question)
		assert.Equal(t, "Seoul", *record.Region)
		assert.Nil(t, record.Radius)
		assert.Equal(t, "Region: Seoul, Question: quiet", record.Prompt)
		assert.Equal(t, colonAnswer, record.Answer)
		assert.Len(t, record.Recommendations, 3)
		assert.False(t, record.CreatedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("record was not published")
	}
}

func TestService_PublishFailureIsNotFatal(t *testing.T) {
	llm := &fakeLLM{response: colonAnswer}
	publisher := newFakePublisher()
	publisher.err = assert.AnError
	s, _ := newTestService(t, llm, failingSummarizer{}, publisher, Options{Persist: true})

	result, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, colonAnswer, result.RawAnswer)
	<-publisher.published
}

func TestService_PersistDisabled(t *testing.T) {
	llm := &fakeLLM{response: colonAnswer}
	publisher := newFakePublisher()
	s, _ := newTestService(t, llm, failingSummarizer{}, publisher, Options{})

	_, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "q"})
	require.NoError(t, err)

	select {
	case <-publisher.published:
		t.Fatal("nothing should be published")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSystemPrompt(t *testing.T) {
	modes := []models.ParseMode{
		models.ParseModeSingleLineColon,
		models.ParseModeLabeledMultiLine,
		models.ParseModeNumberedList,
		models.ParseModeSuffixFilter,
	}
	seen := map[string]bool{}
	for _, m := range modes {
		p := SystemPrompt(m)
		assert.NotEmpty(t, p)
		assert.False(t, seen[p], "mode %s shares a prompt", m)
		seen[p] = true
	}
	assert.Contains(t, SystemPrompt(models.ParseModeLabeledMultiLine), "Location:")
	assert.Contains(t, SystemPrompt(models.ParseModeSingleLineColon), "Keywords:")
}

func TestService_ReferenceData(t *testing.T) {
	gallery := models.ReferencePlace{District: "마포구", Name: "연남 갤러리", Address: "서울 마포구 연남동 3"}

	tests := []struct {
		name       string
		references *fakeReferences
		want       string
	}{
		{
			name:       "matching places are listed",
			references: &fakeReferences{refs: []models.ReferencePlace{gallery}},
			want: labeledMultiLinePrompt + "\n\n" +
				referencePreamble + "\n" +
				"District: 마포구, Place: 연남 갤러리, Address: 서울 마포구 연남동 3\n" +
				referenceClosing,
		},
		{
			name:       "no matches",
			references: &fakeReferences{refs: []models.ReferencePlace{}},
			want:       labeledMultiLinePrompt,
		},
		{
			name:       "lookup failure is not fatal",
			references: &fakeReferences{err: models.NewUpstreamSearchError("open_data", "down", nil)},
			want:       labeledMultiLinePrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parser.New(parser.Options{Mode: models.ParseModeLabeledMultiLine})
			require.NoError(t, err)
			llm := &fakeLLM{response: "Location: Mapo-gu Yeonnam-dong\nDescription: galleries"}
			store := memory.NewStore(failingSummarizer{}, llm, memory.Options{MaxTokenLimit: 500})
			s := NewService(llm, store, p, nil, Options{References: tt.references})

			result, err := s.Handle(context.Background(), "s1", models.RequestContext{Question: "연남동 갤러리 near parks"})
			require.NoError(t, err)
			require.Len(t, result.Recommendations, 1)

			require.Len(t, tt.references.keywords, 1)
			assert.Equal(t, []string{"연남동", "갤러리", "near", "parks"}, tt.references.keywords[0])

			require.Len(t, llm.calls, 1)
			assert.Equal(t, models.Message{Role: models.RoleSystem, Content: tt.want}, llm.calls[0][0])
		})
	}
}

func TestReferencePrompt(t *testing.T) {
	got := ReferencePrompt([]models.ReferencePlace{
		{District: "성동구", Name: "성수 아트홀", Address: "서울 성동구 성수동 12"},
		{District: "종로구", Name: "종로 미술관", Address: "서울 종로구 삼청동 7"},
	})
	assert.Equal(t, referencePreamble+"\n"+
		"District: 성동구, Place: 성수 아트홀, Address: 서울 성동구 성수동 12\n"+
		"District: 종로구, Place: 종로 미술관, Address: 서울 종로구 삼청동 7\n"+
		referenceClosing, got)
}
