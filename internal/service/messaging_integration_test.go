//go:build integration

package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

// MessagingIntegrationSuite проверяет блокировку на Redis и публикацию в RabbitMQ на настоящих брокерах.
type MessagingIntegrationSuite struct {
	suite.Suite
	ctx          context.Context
	rdContainer  *tcredis.RedisContainer
	rmqContainer *rabbitmq.RabbitMQContainer
	redisClient  *redis.Client
	rmqConn      *amqp.Connection
}

func TestMessagingIntegration(t *testing.T) {
	suite.Run(t, new(MessagingIntegrationSuite))
}

func (s *MessagingIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	host, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.rmqContainer, err = rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	require.NoError(s.T(), err, "Failed to start rabbitmq container")
	amqpURL, err := s.rmqContainer.AmqpURL(s.ctx)
	require.NoError(s.T(), err)
	s.rmqConn, err = amqp.Dial(amqpURL)
	require.NoError(s.T(), err)
}

func (s *MessagingIntegrationSuite) TearDownSuite() {
	if s.rmqConn != nil {
		_ = s.rmqConn.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.rmqContainer != nil {
		_ = s.rmqContainer.Terminate(s.ctx)
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

func (s *MessagingIntegrationSuite) TestGenerationLock_ExclusiveUntilReleased() {
	lock := service.NewRedisGenerationLock(s.redisClient, time.Minute, zap.NewNop())

	release, err := lock.Acquire(s.ctx, "story-lock")
	s.Require().NoError(err)

	_, err = lock.Acquire(s.ctx, "story-lock")
	s.Require().ErrorIs(err, models.ErrGenerationInProgress)

	// другая история не блокируется
	other, err := lock.Acquire(s.ctx, "story-other")
	s.Require().NoError(err)
	other()

	release()
	again, err := lock.Acquire(s.ctx, "story-lock")
	s.Require().NoError(err)
	again()
}

func (s *MessagingIntegrationSuite) TestGenerationLock_StaleReleaseKeepsNewOwner() {
	lock := service.NewRedisGenerationLock(s.redisClient, 200*time.Millisecond, zap.NewNop())

	staleRelease, err := lock.Acquire(s.ctx, "story-ttl")
	s.Require().NoError(err)
	time.Sleep(400 * time.Millisecond)

	release, err := lock.Acquire(s.ctx, "story-ttl")
	s.Require().NoError(err)

	// первый владелец опоздал, его release не должен снять чужой ключ
	staleRelease()
	_, err = lock.Acquire(s.ctx, "story-ttl")
	s.Require().ErrorIs(err, models.ErrGenerationInProgress)
	release()
}

func (s *MessagingIntegrationSuite) TestNotifier_DeliversEvent() {
	ch, err := s.rmqConn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	notifier, err := service.NewRabbitMQNotifier(ch, "chapter_events_test", zap.NewNop())
	s.Require().NoError(err)

	deliveries, err := ch.Consume("chapter_events_test", "", true, false, false, false, nil)
	s.Require().NoError(err)

	s.Require().NoError(notifier.NotifyChapterGenerated(s.ctx, models.ChapterGeneratedEvent{
		StoryID:       "s1",
		UserID:        "u1",
		ChapterID:     "c1",
		ChapterNumber: 1,
		HasNarration:  true,
	}))

	select {
	case d := <-deliveries:
		s.Equal("chapter_generated", d.Type)
		var event models.ChapterGeneratedEvent
		s.Require().NoError(json.Unmarshal(d.Body, &event))
		s.Equal("s1", event.StoryID)
		s.Equal(1, event.ChapterNumber)
		s.True(event.HasNarration)
	case <-time.After(10 * time.Second):
		s.Fail("chapter event was not delivered")
	}
}
