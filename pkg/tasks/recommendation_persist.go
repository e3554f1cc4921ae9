package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/introduceourtown/townrec/pkg/models"
)

const DefaultPersistTimeout = 10 * time.Second

var _ models.Task = &RecommendationPersistTask{}

// RecommendationPersistTask writes published recommendation records to the
// RecommendationStore.
type RecommendationPersistTask struct {
	BaseTask
	store   models.RecommendationStore
	timeout time.Duration
}

func NewRecommendationPersistTask(appState *models.AppState) *RecommendationPersistTask {
	timeout := appState.Config.Persistence.Timeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	return &RecommendationPersistTask{
		store:   appState.RecommendationStore,
		timeout: timeout,
	}
}

func (t *RecommendationPersistTask) Execute(ctx context.Context, msg *message.Message) error {
	var record models.RecommendationRecord
	if err := json.Unmarshal(msg.Payload, &record); err != nil {
		// retrying cannot fix a bad payload
		log.Errorf("discarding malformed recommendation record %s: %v", msg.UUID, err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.store.Put(ctx, &record)
}

func (t *RecommendationPersistTask) HandleError(err error) {
	log.Warnf("recommendation record not stored, will retry or move to %s: %v", PoisonQueueTopic, err)
}
