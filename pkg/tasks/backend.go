package tasks

import (
	"database/sql"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	wla "github.com/ma-hartma/watermill-logrus-adapter"

	"github.com/introduceourtown/townrec/config"
)

const (
	QueueMemory   = "memory"
	QueuePostgres = "postgres"
)

// Backend supplies the publisher and subscribers of the task queue.
type Backend struct {
	Publisher     message.Publisher
	Logger        watermill.LoggerAdapter
	newSubscriber func() (message.Subscriber, error)
	close         func() error
}

// NewBackend returns the queue backend named by persistence.queue.
func NewBackend(cfg *config.Config) (*Backend, error) {
	logger := wla.NewLogrusLogger(log)

	switch cfg.Persistence.Queue {
	case QueueMemory, "":
		return NewMemoryBackend(logger), nil
	case QueuePostgres:
		db, err := NewQueueDB(cfg.Persistence.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect task queue database: %w", err)
		}
		return NewSQLBackend(db, logger)
	default:
		return nil, fmt.Errorf("invalid persistence queue: %s", cfg.Persistence.Queue)
	}
}

// NewMemoryBackend keeps tasks in process. Tasks published before a handler
// subscribes, or still queued at shutdown, are lost.
func NewMemoryBackend(logger watermill.LoggerAdapter) *Backend {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Backend{
		Publisher: pubSub,
		Logger:    logger,
		newSubscriber: func() (message.Subscriber, error) {
			return pubSub, nil
		},
		close: pubSub.Close,
	}
}

// NewSQLBackend stores tasks in postgres so they survive restarts.
func NewSQLBackend(db *sql.DB, logger watermill.LoggerAdapter) (*Backend, error) {
	publisher, err := NewSQLQueuePublisher(db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task publisher: %w", err)
	}
	return &Backend{
		Publisher: publisher,
		Logger:    logger,
		newSubscriber: func() (message.Subscriber, error) {
			return NewSQLQueueSubscriber(db, logger)
		},
		close: db.Close,
	}, nil
}

func (b *Backend) NewSubscriber() (message.Subscriber, error) {
	return b.newSubscriber()
}

func (b *Backend) Close() error {
	return b.close()
}
