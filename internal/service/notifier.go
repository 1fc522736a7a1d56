package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

const eventChapterGenerated = "chapter_generated"

//go:generate mockery --name Notifier --output ../mocks --outpkg mocks

// Notifier сообщает другим сервисам о новой главе. Ошибка не откатывает главу.
type Notifier interface {
	NotifyChapterGenerated(ctx context.Context, event models.ChapterGeneratedEvent) error
}

// AMQPChannel - часть *amqp.Channel, которой пользуется notifier.
type AMQPChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type rabbitMQNotifier struct {
	channel   AMQPChannel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQNotifier объявляет durable очередь. Канал открывает и закрывает main.
func NewRabbitMQNotifier(ch AMQPChannel, queueName string, logger *zap.Logger) (Notifier, error) {
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}
	logger = logger.Named("Notifier")
	logger.Info("Chapter events queue declared", zap.String("queue", queueName))
	return &rabbitMQNotifier{channel: ch, queueName: queueName, logger: logger}, nil
}

func (n *rabbitMQNotifier) NotifyChapterGenerated(ctx context.Context, event models.ChapterGeneratedEvent) error {
	event.Event = eventChapterGenerated
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal chapter event: %w", err)
	}

	err = n.channel.PublishWithContext(ctx, "", n.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    time.Now(),
		AppId:        "storybook-server",
		MessageId:    event.ChapterID,
		Type:         eventChapterGenerated,
	})
	if err != nil {
		return fmt.Errorf("publish chapter event for story %s: %w", event.StoryID, err)
	}
	n.logger.Debug("Chapter event published", zap.String("story_id", event.StoryID), zap.Int("chapter_number", event.ChapterNumber))
	return nil
}

type noopNotifier struct{}

// NewNoopNotifier - для конфигурации без RabbitMQ.
func NewNoopNotifier() Notifier { return noopNotifier{} }

func (noopNotifier) NotifyChapterGenerated(context.Context, models.ChapterGeneratedEvent) error {
	return nil
}
