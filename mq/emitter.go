package mq

import (
	"context"
	"encoding/json"
	"log"

	"veloura/rdx"
)

// OrderEvent is a lifecycle notification published for downstream consumers
// (mail, analytics, fulfilment).
type OrderEvent struct {
	Type      string `json:"type"` // order-placed, order-cancelled, order-status-changed
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Status    string `json:"status,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
}

const orderChannel = "order-events"

// Emit publishes an order event to Redis. Failures are logged, never surfaced:
// event delivery must not fail a checkout that already committed.
func Emit(ctx context.Context, event OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Emit] Failed to marshal event: %v", err)
		return
	}

	if err := rdx.Conn.Publish(ctx, orderChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish event to Redis: %v", err)
	}
}

// StartOrderWorker drains the order-events channel and logs each event.
// Real consumers subscribe to the same channel out of process.
func StartOrderWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, orderChannel)
	ch := sub.Channel()

	log.Println("[OrderWorker] Listening for order events...")

	for msg := range ch {
		var event OrderEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[OrderWorker] Failed to parse event: %v", err)
			continue
		}
		log.Printf("[OrderWorker] %s order=%s user=%s", event.Type, event.OrderID, event.UserID)
	}
}
