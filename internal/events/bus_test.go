package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch1, unsub1 := bus.Subscribe(4)
	defer unsub1()
	ch2, unsub2 := bus.Subscribe(4)
	defer unsub2()

	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(&StatusChangedData{
		Feed:     "action-items",
		RecordID: "abc",
		From:     "proposed",
		To:       "approved",
	})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			assert.Equal(t, StatusChanged, event.Type)
			data, ok := event.Data.(*StatusChangedData)
			require.True(t, ok)
			assert.Equal(t, "abc", data.RecordID)
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("expected event on subscriber channel")
		}
	}
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, unsub := bus.Subscribe(1)
	defer unsub()

	// Second publish overflows the buffer and must not block
	done := make(chan struct{})
	go func() {
		bus.Publish(&BackupCompletedData{Filename: "one.tar.gz"})
		bus.Publish(&BackupCompletedData{Filename: "two.tar.gz"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}

	event := <-ch
	data, ok := event.Data.(*BackupCompletedData)
	require.True(t, ok)
	assert.Equal(t, "one.tar.gz", data.Filename)
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	_, unsub := bus.Subscribe(1)
	unsub()
	unsub()

	assert.Equal(t, 0, bus.SubscriberCount())

	// Publishing after the last unsubscribe is a no-op
	bus.Publish(&BatchRefreshedData{Feed: "flight-deals", PeriodKey: "2025-03-10"})
}
