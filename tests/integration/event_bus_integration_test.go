//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevadesk/civicbook/internal/adapters/events"
	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/providers"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelBookingUpdates
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.BookingEvent{
		ID:           uuid.New().String(),
		Type:         entities.BookingEventCreated,
		BookingID:    "bk-redis-1",
		DepartmentID: "dept-int-1",
		ServiceID:    "svc-int-1",
		UserID:       "user-int-1",
		Status:       entities.BookingStatusPendingDocs,
		Timestamp:    time.Now(),
	}

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForBookingEvent(t, sub1)
	received2 := waitForBookingEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
}

func TestRedisEventBusScopedChannels(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userChan, err := eventBus.Subscribe(ctx, providers.GetUserChannel("user-int-1"))
	require.NoError(t, err)
	otherChan, err := eventBus.Subscribe(ctx, providers.GetUserChannel("user-int-2"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.BookingEvent{
		ID:        uuid.New().String(),
		Type:      entities.BookingEventStatusChanged,
		BookingID: "bk-redis-2",
		UserID:    "user-int-1",
		Status:    entities.BookingStatusApproved,
		Timestamp: time.Now(),
	}

	err = eventBus.Publish(context.Background(), providers.GetUserChannel("user-int-1"), event)
	require.NoError(t, err)

	received := waitForBookingEvent(t, userChan)
	assert.Equal(t, entities.BookingStatusApproved, received.Status)

	select {
	case unexpected := <-otherChan:
		t.Fatalf("event leaked to another user's channel: %v", unexpected)
	case <-time.After(200 * time.Millisecond):
	}
}

func waitForBookingEvent(t *testing.T, ch <-chan *entities.BookingEvent) *entities.BookingEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for booking event")
		return nil
	}
}
