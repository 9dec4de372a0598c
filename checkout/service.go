package checkout

import (
	"context"
	"errors"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"veloura/apperr"
	"veloura/gateway"
	"veloura/models"
	"veloura/mq"
	"veloura/products"
	"veloura/stock"
	"veloura/utils"
)

// CartStore and OrderStore are the persistence seams of the orchestrator.
type CartStore interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Delete(ctx context.Context, userID string) error
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
}

// Gateway is the payment-gateway contract the orchestrator needs.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*gateway.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Service converts a validated cart into a persisted order, coordinating
// stock decrement, coupon finalization, delivery-fee rules, and payment
// confirmation.
type Service struct {
	Catalog products.Catalog
	Ledger  *stock.Ledger
	Carts   CartStore
	Orders  OrderStore
	Gateway Gateway

	// Delivery fee applies when the items total is below this threshold.
	MinOrderAmount float64
	DeliveryCharge float64
}

// NewService wires the production collaborators with env-driven fee config.
func NewService(catalog products.Catalog, ledger *stock.Ledger, gw Gateway) *Service {
	return &Service{
		Catalog:        catalog,
		Ledger:         ledger,
		Carts:          mongoCartStore{},
		Orders:         mongoOrderStore{},
		Gateway:        gw,
		MinOrderAmount: envFloat("MIN_ORDER_AMOUNT", 500),
		DeliveryCharge: envFloat("DELIVERY_CHARGE", 40),
	}
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// ComputeTotals applies the coupon discount and the flat delivery charge.
// The delivery fee keys off the pre-discount items total.
func ComputeTotals(itemsTotal, couponDiscount, minOrderAmount, deliveryCharge float64) (total, delivery float64) {
	delivery = 0
	if itemsTotal < minOrderAmount {
		delivery = deliveryCharge
	}
	total = itemsTotal - couponDiscount + delivery
	if total < 0 {
		total = 0
	}
	return total, delivery
}

// buildOrder re-reads every cart line from the live catalog: the item must
// still exist and not be soft-deleted, and the charged price is the catalog's
// current one, not the cart's add-time snapshot.
func (s *Service) buildOrder(ctx context.Context, cart *models.Cart) ([]models.OrderItem, []stock.Line, float64, error) {
	items := make([]models.OrderItem, 0, len(cart.Items))
	lines := make([]stock.Line, 0, len(cart.Items))
	itemsTotal := 0.0

	for _, line := range cart.Items {
		resolved, err := s.Catalog.Resolve(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return nil, nil, 0, err
		}

		price := resolved.UnitPrice()
		items = append(items, models.OrderItem{
			ProductID: resolved.ProductID,
			VariantID: resolved.VariantID,
			Name:      resolved.Name,
			Quantity:  line.Quantity,
			Price:     price,
		})
		lines = append(lines, stock.Line{
			Ref:      stock.UnitRef{ProductID: resolved.ProductID, VariantID: resolved.VariantID},
			Quantity: line.Quantity,
		})
		itemsTotal += price * float64(line.Quantity)
	}

	return items, lines, itemsTotal, nil
}

// assemble builds the full order document for a cart and address.
func (s *Service) assemble(ctx context.Context, cart *models.Cart, address models.Address, orderID string) (*models.Order, []stock.Line, error) {
	items, lines, itemsTotal, err := s.buildOrder(ctx, cart)
	if err != nil {
		return nil, nil, err
	}

	discount := 0.0
	if cart.CouponApplied != nil {
		discount = cart.CouponApplied.DiscountAmount
	}
	total, delivery := ComputeTotals(itemsTotal, discount, s.MinOrderAmount, s.DeliveryCharge)

	now := time.Now()
	order := &models.Order{
		OrderID:        orderID,
		UserID:         cart.UserID,
		Items:          items,
		Address:        address,
		TotalAmount:    total,
		DeliveryCharge: delivery,
		CouponApplied:  cart.CouponApplied,
		Status:         models.OrderPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return order, lines, nil
}

// commit is the all-or-nothing tail of a checkout: decrement the batch,
// persist the order, consume the cart. A failed persist compensates the
// decrement so no stock is stranded without an order.
func (s *Service) commit(ctx context.Context, order *models.Order, lines []stock.Line) error {
	if err := s.Ledger.DecrementStock(ctx, lines); err != nil {
		var ise *stock.InsufficientStockError
		if errors.As(err, &ise) {
			return apperr.Conflict(ise.Error())
		}
		return err
	}

	if err := s.Orders.Insert(ctx, order); err != nil {
		if restoreErr := s.Ledger.RestoreStock(ctx, lines); restoreErr != nil {
			log.Println("checkout: compensating restore failed:", restoreErr)
		}
		return err
	}

	if err := s.Carts.Delete(ctx, order.UserID); err != nil {
		// The order exists; a dangling cart is recoverable, so log only.
		log.Println("checkout: cart cleanup failed:", err)
	}

	for _, line := range lines {
		if remaining, err := s.Ledger.Available(ctx, line.Ref); err == nil {
			stock.BroadcastStockUpdate(line.Ref, remaining)
		}
	}

	mq.Emit(ctx, mq.OrderEvent{
		Type:      "order-placed",
		OrderID:   order.OrderID,
		UserID:    order.UserID,
		Status:    order.Status,
		PaymentID: order.PaymentID,
	})
	return nil
}

// amountsEqual compares money values with sub-paise tolerance.
func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

// ConfirmOnline commits a gateway-paid checkout. The cart is rebuilt from the
// live catalog, and the resulting total must still match the amount the
// gateway order was created for: the cart stays mutable between intent and
// verification, so a drifted total means the customer paid for a different
// order than the one about to be written.
func (s *Service) ConfirmOnline(ctx context.Context, userID string, intent paymentIntent, address models.Address, gatewayOrderID, paymentID string) (*models.Order, error) {
	if intent.UserID != userID {
		return nil, apperr.Validation("Payment intent does not belong to this user")
	}

	cart, err := s.validateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	order, lines, err := s.assemble(ctx, cart, address, "ORD-"+utils.GetUUID())
	if err != nil {
		return nil, err
	}
	if !amountsEqual(order.TotalAmount, intent.Amount) {
		return nil, apperr.Conflict("Order total changed after payment was initiated")
	}
	order.PaymentMethod = models.PaymentMethodOnline
	order.PaymentStatus = models.PaymentPaid
	order.GatewayOrderID = gatewayOrderID
	order.PaymentID = paymentID

	if err := s.commit(ctx, order, lines); err != nil {
		return nil, err
	}
	return order, nil
}

// validateCart rejects missing or empty carts before any work happens.
func (s *Service) validateCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperr.Validation("Cart is empty")
	}
	return cart, nil
}
