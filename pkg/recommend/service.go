package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/llms"
	"github.com/introduceourtown/townrec/pkg/metrics"
	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/telemetry"
)

var log = internal.GetLogger()

var _ models.Recommender = &Service{}

type Options struct {
	// QuestionTemplate is a text/template rendered with QuestionTemplateData.
	QuestionTemplate string
	// Timeout bounds the completion call.
	Timeout time.Duration
	// Persist publishes a record of every answered question.
	Persist bool
	// References adds public reference data to the system prompt when set.
	References models.ReferenceProvider
}

// Service answers a question with neighborhood recommendations, using the
// session's conversation memory as context.
type Service struct {
	llm       models.LLM
	memory    models.MemoryStore
	parser    models.Parser
	publisher models.TaskPublisher
	opts      Options
}

// NewService returns a Service. publisher may be nil when opts.Persist is false.
func NewService(
	llm models.LLM,
	memory models.MemoryStore,
	parser models.Parser,
	publisher models.TaskPublisher,
	opts Options,
) *Service {
	if opts.QuestionTemplate == "" {
		opts.QuestionTemplate = DefaultQuestionTemplate
	}
	if opts.Timeout <= 0 {
		opts.Timeout = llms.DefaultAPITimeout
	}
	if publisher == nil {
		opts.Persist = false
	}
	return &Service{
		llm:       llm,
		memory:    memory,
		parser:    parser,
		publisher: publisher,
		opts:      opts,
	}
}

func NewServiceFromAppState(appState *models.AppState) *Service {
	cfg := appState.Config
	return NewService(
		appState.LLMClient,
		appState.MemoryStore,
		appState.Parser,
		appState.TaskPublisher,
		Options{
			QuestionTemplate: cfg.Recommend.QuestionTemplate,
			Timeout:          cfg.LLM.Timeout,
			Persist:          cfg.Persistence.Enabled,
			References:       appState.ReferenceProvider,
		},
	)
}

func (s *Service) Handle(
	ctx context.Context,
	sessionID string,
	req models.RequestContext,
) (*models.RecommendationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "recommend.handle",
		attribute.String("session.id", sessionID),
		attribute.String("parser.mode", string(s.parser.Mode())),
	)
	defer span.End()

	result, err := s.handle(ctx, sessionID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecommendationTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RecommendationTotal.WithLabelValues("ok").Inc()
	return result, nil
}

func (s *Service) handle(
	ctx context.Context,
	sessionID string,
	req models.RequestContext,
) (*models.RecommendationResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, models.NewBadRequestError("question is required")
	}

	prompt, err := s.FormatPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt: %w", err)
	}

	mem := s.memory.Get(sessionID)
	history := mem.Load()

	messages := make([]models.Message, 0, len(history.Messages)+2)
	messages = append(messages, models.Message{
		Role:    models.RoleSystem,
		Content: s.systemPrompt(ctx, sessionID, req.Question),
	})
	messages = append(messages, history.Messages...)
	messages = append(messages, models.Message{Role: models.RoleHuman, Content: prompt})

	raw, err := s.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	parsed := s.parser.Parse(raw)
	if parsed.Ambiguous() {
		metrics.ParseAmbiguityTotal.WithLabelValues(string(s.parser.Mode())).Inc()
		log.Warnf("session %s: %v (mode %s)", sessionID, models.ErrParseAmbiguity, s.parser.Mode())
	}

	// the answer exists at this point so a failed append must not fail the request
	if err := mem.Append(context.WithoutCancel(ctx), prompt, raw); err != nil {
		metrics.SummarizationFailTotal.Inc()
		log.Errorf("session %s: memory not updated: %v", sessionID, err)
	}

	result := &models.RecommendationResult{
		RawAnswer:       raw,
		Keywords:        nonNil(parsed.Keywords),
		Recommendations: parsed.Recommendations,
	}
	if result.Recommendations == nil {
		result.Recommendations = []models.Recommendation{}
	}

	if s.opts.Persist {
		record := &models.RecommendationRecord{
			SessionID:       sessionID,
			Question:        req.Question,
			Region:          req.Region,
			Radius:          req.Radius,
			Prompt:          prompt,
			Answer:          raw,
			Keywords:        result.Keywords,
			Recommendations: result.Recommendations,
			CreatedAt:       time.Now().UTC(),
		}
		go s.persist(record)
	}

	return result, nil
}

// systemPrompt appends matching reference places to the mode's instructions.
// A failed lookup only drops the reference block.
func (s *Service) systemPrompt(ctx context.Context, sessionID, question string) string {
	prompt := SystemPrompt(s.parser.Mode())
	if s.opts.References == nil {
		return prompt
	}

	refs, err := s.opts.References.References(ctx, strings.Fields(question))
	if err != nil {
		log.Warnf("session %s: reference data unavailable: %v", sessionID, err)
		return prompt
	}
	if len(refs) == 0 {
		return prompt
	}
	return prompt + "\n\n" + ReferencePrompt(refs)
}

func (s *Service) complete(ctx context.Context, messages []models.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.llm.Call(callCtx, messages)
	metrics.ObserveUpstream("completion", start, err)
	if err != nil {
		// transports do not always wrap the context error
		if ctxErr := callCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", models.NewUpstreamCompletionError("chat completion failed", err)
	}

	return raw, nil
}

func (s *Service) persist(record *models.RecommendationRecord) {
	err := s.publisher.Publish(
		models.RecommendationPersistTopic,
		map[string]string{"session_id": record.SessionID},
		record,
	)
	if err != nil {
		metrics.PersistenceFailTotal.WithLabelValues("publish").Inc()
		log.Error(models.NewPersistenceError("failed to publish recommendation record", err))
	}
}

// FormatPrompt renders the question with its optional region and radius.
func (s *Service) FormatPrompt(req models.RequestContext) (string, error) {
	data := QuestionTemplateData{Question: strings.TrimSpace(req.Question)}
	if req.Region != nil {
		data.Region = strings.TrimSpace(*req.Region)
	}
	if req.Radius != nil {
		data.Radius = strconv.FormatFloat(*req.Radius, 'g', -1, 64)
	}
	return internal.ParsePrompt(s.opts.QuestionTemplate, data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
