package order

import (
	"context"
	"errors"
	"log"
	"time"

	"veloura/apperr"
	"veloura/db"
	"veloura/models"
	"veloura/mq"
	"veloura/stock"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	KindOrder   = "order"
	KindPayment = "payment"
)

var orderStatuses = map[string]bool{
	models.OrderPending:   true,
	models.OrderConfirmed: true,
	models.OrderProcessed: true,
	models.OrderShipped:   true,
	models.OrderDelivered: true,
	models.OrderCancelled: true,
	models.OrderRefunded:  true,
	models.OrderOnRefund:  true,
}

var paymentStatuses = map[string]bool{
	models.PaymentPending:  true,
	models.PaymentPaid:     true,
	models.PaymentFailed:   true,
	models.PaymentRefunded: true,
	models.PaymentOnRefund: true,
}

// ValidStatus checks a proposed status against the whitelist for its kind.
// Cross-kind values are rejected by construction.
func ValidStatus(kind, status string) bool {
	switch kind {
	case KindOrder:
		return orderStatuses[status]
	case KindPayment:
		return paymentStatuses[status]
	}
	return false
}

// Manager governs order and payment status transitions and triggers stock
// restoration on cancellation.
type Manager struct {
	Ledger *stock.Ledger
}

func NewManager(ledger *stock.Ledger) *Manager {
	return &Manager{Ledger: ledger}
}

// restoreLines maps purchased items back to the exact stock units they were
// decremented against: variant lines restore the variant, bare lines the
// product.
func restoreLines(o *models.Order) []stock.Line {
	lines := make([]stock.Line, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, stock.Line{
			Ref:      stock.UnitRef{ProductID: item.ProductID, VariantID: item.VariantID},
			Quantity: item.Quantity,
		})
	}
	return lines
}

func loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := db.OrderCollection.FindOne(ctx, bson.M{"orderid": orderID, "isdeleted": false}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus applies an admin-driven transition. Cancelled is terminal for
// the order kind: the guard is part of the update filter, so the restore that
// accompanies a cancellation can run at most once even under racing requests.
func (m *Manager) UpdateStatus(ctx context.Context, orderID, newStatus, kind string) (*models.Order, error) {
	if !ValidStatus(kind, newStatus) {
		return nil, apperr.Validation("Unknown status for kind " + kind)
	}

	o, err := loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if kind == KindPayment {
		update := bson.M{"$set": bson.M{"paymentstatus": newStatus, "updatedat": time.Now()}}
		if _, err := db.OrderCollection.UpdateOne(ctx, bson.M{"orderid": orderID}, update); err != nil {
			return nil, err
		}
		o.PaymentStatus = newStatus
		return o, nil
	}

	if o.Status == models.OrderCancelled {
		return nil, apperr.Conflict("Order is already cancelled")
	}

	filter := bson.M{"orderid": orderID, "status": bson.M{"$ne": models.OrderCancelled}}
	update := bson.M{"$set": bson.M{"status": newStatus, "updatedat": time.Now()}}
	res, err := db.OrderCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		return nil, apperr.Conflict("Order is already cancelled")
	}
	o.Status = newStatus

	if newStatus == models.OrderCancelled {
		m.restock(ctx, o)
	}

	mq.Emit(ctx, mq.OrderEvent{
		Type:    "order-status-changed",
		OrderID: o.OrderID,
		UserID:  o.UserID,
		Status:  newStatus,
	})
	return o, nil
}

// CancelByCustomer is the customer-facing cancellation: ownership-checked and
// gated to pending orders. The whole gate lives in the update filter.
func (m *Manager) CancelByCustomer(ctx context.Context, orderID, userID string) (*models.Order, error) {
	filter := bson.M{
		"orderid":   orderID,
		"userId":    userID,
		"status":    models.OrderPending,
		"isdeleted": false,
	}
	update := bson.M{"$set": bson.M{"status": models.OrderCancelled, "updatedat": time.Now()}}

	res, err := db.OrderCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		return nil, apperr.Conflict("Order not found or cannot be cancelled")
	}

	o, err := loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	m.restock(ctx, o)

	mq.Emit(ctx, mq.OrderEvent{
		Type:    "order-cancelled",
		OrderID: o.OrderID,
		UserID:  o.UserID,
		Status:  models.OrderCancelled,
	})
	return o, nil
}

func (m *Manager) restock(ctx context.Context, o *models.Order) {
	lines := restoreLines(o)
	if err := m.Ledger.RestoreStock(ctx, lines); err != nil {
		log.Printf("Stock restore for order %s failed: %v", o.OrderID, err)
	}
	for _, line := range lines {
		if remaining, err := m.Ledger.Available(ctx, line.Ref); err == nil {
			stock.BroadcastStockUpdate(line.Ref, remaining)
		}
	}
}
