// Package mq carries booking change events between server instances over Redis pub/sub so
// every instance can push them to its own websocket subscribers.
package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"tourbook/models"
)

const BookingChannel = "booking-events"

// Sink receives bookings on this instance, normally the websocket hub.
type Sink interface {
	Publish(b *models.Booking)
}

// Emitter publishes booking changes to Redis. Without a connection, or when publishing fails,
// the change goes straight to the local sink.
type Emitter struct {
	conn  *redis.Client
	local Sink
}

func NewEmitter(conn *redis.Client, local Sink) *Emitter {
	return &Emitter{conn: conn, local: local}
}

func (e *Emitter) Publish(b *models.Booking) {
	if e.conn == nil {
		e.local.Publish(b)
		return
	}

	data, err := json.Marshal(b)
	if err != nil {
		log.Printf("[Emit] Failed to marshal booking %s: %v", b.ID.Hex(), err)
		e.local.Publish(b)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.conn.Publish(ctx, BookingChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish booking %s: %v", b.ID.Hex(), err)
		e.local.Publish(b)
	}
}

// StartWorker forwards bookings published by any instance to the local sink until ctx ends.
func StartWorker(ctx context.Context, conn *redis.Client, local Sink) {
	if conn == nil {
		return
	}
	sub := conn.Subscribe(ctx, BookingChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Println("[BookingWorker] Listening for booking events...")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			deliver(local, msg.Payload)
		}
	}
}

func deliver(local Sink, payload string) {
	var b models.Booking
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		log.Printf("[BookingWorker] Failed to parse event: %v", err)
		return
	}
	local.Publish(&b)
}
