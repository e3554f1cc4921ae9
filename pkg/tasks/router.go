package tasks

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	wotel "github.com/voi-oss/watermill-opentelemetry/pkg/opentelemetry"

	"github.com/introduceourtown/townrec/pkg/metrics"
	"github.com/introduceourtown/townrec/pkg/models"
)

const TaskCountThrottle = 50 // messages per second
const MaxQueueRetries = 3
const PoisonQueueTopic = "poison_queue"

var _ models.TaskRouter = &TaskRouter{}

// TaskRouter is a wrapper around watermill's Router that adds some
// functionality for managing tasks and handlers.
type TaskRouter struct {
	*message.Router
	backend *Backend
}

func NewTaskRouter(backend *Backend) (*TaskRouter, error) {
	router, err := message.NewRouter(message.RouterConfig{}, backend.Logger)
	if err != nil {
		return nil, err
	}

	// messages that still fail after retries are moved aside instead of being redelivered
	poisonQueue, err := middleware.PoisonQueue(backend.Publisher, PoisonQueueTopic)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		// CorrelationID will copy the correlation id from the incoming message's metadata to the produced messages
		middleware.CorrelationID,

		// Trace starts a consumer span per message.
		wotel.Trace(),

		poisonQueue,

		// countFailures sees each message once, after Retry has given up.
		countFailures,

		// Throttle limits the number of messages processed per second.
		middleware.NewThrottle(TaskCountThrottle, time.Second).Middleware,

		// Recoverer handles panics from handlers.
		// In this case, it passes them as errors to the Retry middleware.
		middleware.Recoverer,

		middleware.Retry{
			MaxRetries:      MaxQueueRetries,
			InitialInterval: 100 * time.Millisecond,
			Multiplier:      2,
			Logger:          backend.Logger,
		}.Middleware,
	)

	return &TaskRouter{
		Router:  router,
		backend: backend,
	}, nil
}

// failureStages maps a task topic to its persistence_fail_total stage.
var failureStages = map[string]string{
	string(models.RecommendationPersistTopic): "store",
}

func countFailures(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)
		if err != nil {
			if stage, ok := failureStages[message.SubscribeTopicFromCtx(msg.Context())]; ok {
				metrics.PersistenceFailTotal.WithLabelValues(stage).Inc()
			}
		}
		return msgs, err
	}
}

// AddTask adds a task handler to the router.
func (tr *TaskRouter) AddTask(_ context.Context, name string, taskType models.TaskTopic, task models.Task) {
	subscriber, err := tr.backend.NewSubscriber()
	if err != nil {
		log.Fatalf("Failed to create subscriber for task %s: %v", taskType, err)
	}
	tr.AddNoPublisherHandler(
		name,
		string(taskType),
		subscriber,
		TaskHandler(task),
	)
}

func (tr *TaskRouter) Close() (err error) {
	routerErr := tr.Router.Close()
	defer func() {
		backendErr := tr.backend.Close()
		if err == nil {
			err = backendErr
		}
	}()
	if routerErr != nil {
		err = routerErr
	}
	return err
}

// TaskHandler returns a message handler function for the given task.
// Handlers are NoPublishHandlerFuncs i.e. do not publish messages.
func TaskHandler(task models.Task) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := task.Execute(msg.Context(), msg)
		if err != nil {
			task.HandleError(err)
			return err
		}
		return nil
	}
}

// RunTaskRouter wires the router and publisher into appState, registers the
// tasks and runs the router until ctx is done. It returns once the handlers
// are subscribed.
func RunTaskRouter(ctx context.Context, appState *models.AppState, backend *Backend) error {
	router, err := NewTaskRouter(backend)
	if err != nil {
		return err
	}

	Initialize(ctx, appState, router)

	appState.TaskRouter = router
	appState.TaskPublisher = NewTaskPublisher(wotel.NewPublisherDecorator(backend.Publisher))

	go func() {
		log.Info("running task router")
		if err := router.Run(ctx); err != nil {
			log.Errorf("task router stopped: %v", err)
		}
	}()

	select {
	case <-router.Running():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
