package mq

import (
	"context"
	"encoding/json"
	"sync"

	"doctorsportal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel carries booking events between instances.
const Channel = "booking-events"

// Bus fans booking events out to listeners.
type Bus interface {
	Publish(ctx context.Context, evt models.BookingEvent) error
	// Listen calls fn for every event until ctx is done.
	Listen(ctx context.Context, fn func(models.BookingEvent)) error
}

// RedisBus publishes over Redis pub/sub so every instance sees every event.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, evt models.BookingEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, Channel, data).Err()
}

func (b *RedisBus) Listen(ctx context.Context, fn func(models.BookingEvent)) error {
	sub := b.client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()

	log.Info().Str("channel", Channel).Msg("listening for booking events")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt models.BookingEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Warn().Err(err).Msg("dropping malformed booking event")
				continue
			}
			fn(evt)
		}
	}
}

// LocalBus delivers events in-process for single-instance deployments.
type LocalBus struct {
	mu        sync.RWMutex
	listeners map[int]func(models.BookingEvent)
	next      int
}

func NewLocalBus() *LocalBus {
	return &LocalBus{listeners: make(map[int]func(models.BookingEvent))}
}

// Publish calls listeners on the caller's goroutine, outside the lock.
func (b *LocalBus) Publish(_ context.Context, evt models.BookingEvent) error {
	b.mu.RLock()
	fns := make([]func(models.BookingEvent), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
	return nil
}

func (b *LocalBus) Listen(ctx context.Context, fn func(models.BookingEvent)) error {
	b.mu.Lock()
	id := b.next
	b.next++
	b.listeners[id] = fn
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.listeners, id)
	b.mu.Unlock()
	return nil
}
