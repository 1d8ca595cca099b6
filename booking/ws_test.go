package booking

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doctorsportal/models"
	"doctorsportal/mq"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPushesUpdatesForDate(t *testing.T) {
	hub := NewHub()
	bus := mq.NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, bus)

	router := httprouter.New()
	router.GET("/ws/appointmentOptions", hub.HandleWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/appointmentOptions?date=Oct%2015,%202026"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Subscribers("Oct 15, 2026") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// An event for another date is not delivered.
	require.NoError(t, bus.Publish(ctx, models.BookingEvent{Type: models.EventBookingCreated, AppointmentDate: "Oct 16, 2026"}))
	require.NoError(t, bus.Publish(ctx, models.BookingEvent{Type: models.EventBookingCreated, AppointmentDate: "Oct 15, 2026"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, map[string]string{"type": "update", "date": "Oct 15, 2026"}, msg)

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.Subscribers("Oct 15, 2026") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubNotifyDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < updateQueue+10; i++ {
			hub.Notify(models.BookingEvent{Type: models.EventBookingCreated, AppointmentDate: "Oct 15, 2026"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked without a running pump")
	}
	assert.Len(t, hub.updates, updateQueue)
}
