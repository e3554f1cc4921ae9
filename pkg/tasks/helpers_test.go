package tasks

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/introduceourtown/townrec/pkg/models"
)

func newTestMessage(payload []byte) *message.Message {
	return message.NewMessage(watermill.NewUUID(), payload)
}

type recordingRouter struct {
	topics []models.TaskTopic
}

func (r *recordingRouter) Run(context.Context) error { return nil }

func (r *recordingRouter) AddTask(_ context.Context, _ string, taskType models.TaskTopic, _ models.Task) {
	r.topics = append(r.topics, taskType)
}

func (r *recordingRouter) IsRunning() bool { return false }

func (r *recordingRouter) Close() error { return nil }
