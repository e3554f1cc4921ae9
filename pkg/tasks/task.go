package tasks

import (
	"context"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

var log = internal.GetLogger()

type BaseTask struct{}

func (b *BaseTask) HandleError(err error) {
	log.Errorf("Task HandleError error: %s", err)
}

// Initialize registers the enabled tasks with router.
func Initialize(ctx context.Context, appState *models.AppState, router models.TaskRouter) {
	log.Info("Initializing tasks")

	addTask := func(ctx context.Context, name string, taskType models.TaskTopic, enabled bool, newTask func() models.Task) {
		if enabled {
			task := newTask()
			router.AddTask(ctx, name, taskType, task)
			log.Infof("%s task added to task router", name)
		}
	}

	addTask(
		ctx,
		string(models.RecommendationPersistTopic),
		models.RecommendationPersistTopic,
		appState.Config.Persistence.Enabled && appState.RecommendationStore != nil,
		func() models.Task { return NewRecommendationPersistTask(appState) },
	)
}
