package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func subscribeRedis(t *testing.T, channel string) (*redis.Client, *redis.PubSub) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	subscription := redisClient.Subscribe(context.Background(), channel)
	t.Cleanup(func() { _ = subscription.Close() })
	_, err = subscription.Receive(context.Background())
	require.NoError(t, err)

	return redisClient, subscription
}

func receiveRedisEvent(t *testing.T, subscription *redis.PubSub) EvaluationEvent {
	t.Helper()
	select {
	case message := <-subscription.Channel():
		var event EvaluationEvent
		require.NoError(t, json.Unmarshal([]byte(message.Payload), &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("evaluation event was not published to redis")
	}
	return EvaluationEvent{}
}

func runNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   natsserver.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server did not start")
	}
	t.Cleanup(srv.Shutdown)
	return srv
}

func TestEvaluationPublisherBroadcastsToRedis(t *testing.T) {
	redisClient, subscription := subscribeRedis(t, "ideascope:evaluations")

	publisher := NewEvaluationPublisher(redisClient, nil, "ideascope.evaluations", zerolog.Nop())
	publisher.Publish(context.Background(), EvaluationEvent{
		CorrelationID: "corr-42",
		Outcome:       EventOutcomeExtracted,
		Strategy:      "direct",
		DurationMs:    12,
	})

	event := receiveRedisEvent(t, subscription)
	require.Equal(t, "corr-42", event.CorrelationID)
	require.Equal(t, EventOutcomeExtracted, event.Outcome)
	require.Equal(t, "direct", event.Strategy)
	require.False(t, event.OccurredAt.IsZero())
}

func TestEvaluationPublisherRedisWithoutSubject(t *testing.T) {
	redisClient, subscription := subscribeRedis(t, "ideascope:evaluations")

	publisher := NewEvaluationPublisher(redisClient, nil, "  ", zerolog.Nop())
	publisher.Publish(context.Background(), EvaluationEvent{Outcome: EventOutcomeFallback, FallbackReason: "backend_unavailable"})

	event := receiveRedisEvent(t, subscription)
	require.Equal(t, EventOutcomeFallback, event.Outcome)
	require.Equal(t, "backend_unavailable", event.FallbackReason)
}

func TestEvaluationPublisherBroadcastsToNATS(t *testing.T) {
	srv := runNATSServer(t)

	conn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer conn.Close()

	subscription, err := conn.SubscribeSync("ideascope.evaluations")
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	redisClient, redisSubscription := subscribeRedis(t, "ideascope:evaluations")

	publisher := NewEvaluationPublisher(redisClient, conn, "ideascope.evaluations", zerolog.Nop())
	publisher.Publish(context.Background(), EvaluationEvent{
		CorrelationID: "corr-nats",
		Outcome:       EventOutcomeCached,
		Cached:        true,
	})

	message, err := subscription.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var event EvaluationEvent
	require.NoError(t, json.Unmarshal(message.Data, &event))
	require.Equal(t, "corr-nats", event.CorrelationID)
	require.Equal(t, EventOutcomeCached, event.Outcome)
	require.True(t, event.Cached)

	require.Equal(t, "corr-nats", receiveRedisEvent(t, redisSubscription).CorrelationID)
}

func TestEvaluationPublisherWithoutTransports(t *testing.T) {
	publisher := NewEvaluationPublisher(nil, nil, "ideascope.evaluations", zerolog.Nop())
	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), EvaluationEvent{Outcome: EventOutcomeFallback})
	})
}

func TestEvaluationPublisherSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer redisClient.Close()
	mr.Close()

	publisher := NewEvaluationPublisher(redisClient, nil, "ideascope.evaluations", zerolog.Nop())
	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), EvaluationEvent{Outcome: EventOutcomeError})
	})
}
