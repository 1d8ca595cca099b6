package mq

import (
	"context"
	"sync"
	"testing"
	"time"

	"doctorsportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu  sync.Mutex
		got []models.BookingEvent
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Listen(ctx, func(evt models.BookingEvent) {
			mu.Lock()
			got = append(got, evt)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.listeners) == 1
	}, time.Second, 5*time.Millisecond)

	evt := models.BookingEvent{Type: models.EventBookingCreated, AppointmentDate: "Oct 15, 2026"}
	require.NoError(t, bus.Publish(context.Background(), evt))

	mu.Lock()
	assert.Equal(t, []models.BookingEvent{evt}, got)
	mu.Unlock()

	cancel()
	<-done
	assert.Empty(t, bus.listeners)
}

func TestLocalBusSlowListenerDoesNotHoldLock(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	go bus.Listen(ctx, func(models.BookingEvent) {
		close(started)
		<-release
	})
	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.listeners) == 1
	}, time.Second, 5*time.Millisecond)

	go bus.Publish(context.Background(), models.BookingEvent{AppointmentDate: "Oct 15, 2026"})
	<-started

	// Registering needs the write lock while the first listener is still busy.
	go bus.Listen(ctx, func(models.BookingEvent) {})
	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.listeners) == 2
	}, time.Second, 5*time.Millisecond)

	close(release)
}
