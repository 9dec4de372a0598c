package checkout

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"veloura/apperr"
	"veloura/models"
	"veloura/products"
	"veloura/stock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	prices map[string]float64
}

func (f fakeCatalog) Resolve(_ context.Context, productID, variantID string) (products.Resolved, error) {
	key := productID
	if variantID != "" {
		key = productID + "/" + variantID
	}
	price, ok := f.prices[key]
	if !ok {
		return products.Resolved{}, apperr.NotFound("Product not found")
	}
	return products.Resolved{
		ProductID: productID,
		VariantID: variantID,
		Name:      "item " + key,
		Price:     price,
	}, nil
}

type fakeStockStore struct {
	mu     sync.Mutex
	counts map[stock.UnitRef]int
}

func (f *fakeStockStore) Available(_ context.Context, ref stock.UnitRef) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[ref], nil
}

func (f *fakeStockStore) DecrementIfAvailable(_ context.Context, ref stock.UnitRef, qty int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[ref] < qty {
		return false, nil
	}
	f.counts[ref] -= qty
	return true, nil
}

func (f *fakeStockStore) Increment(_ context.Context, ref stock.UnitRef, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[ref] += qty
	return nil
}

type fakeCartStore struct {
	cart    *models.Cart
	deleted bool
}

func (f *fakeCartStore) Get(_ context.Context, _ string) (*models.Cart, error) { return f.cart, nil }
func (f *fakeCartStore) Delete(_ context.Context, _ string) error {
	f.deleted = true
	return nil
}

type fakeOrderStore struct {
	orders    []*models.Order
	insertErr error
}

func (f *fakeOrderStore) Insert(_ context.Context, o *models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.orders = append(f.orders, o)
	return nil
}

func newTestService(catalog fakeCatalog, store *fakeStockStore, carts *fakeCartStore, orders *fakeOrderStore) *Service {
	return &Service{
		Catalog:        catalog,
		Ledger:         stock.NewLedger(store),
		Carts:          carts,
		Orders:         orders,
		MinOrderAmount: 500,
		DeliveryCharge: 40,
	}
}

func TestComputeTotals(t *testing.T) {
	// below the threshold: delivery added after the discount
	total, delivery := ComputeTotals(400, 40, 500, 40)
	assert.Equal(t, 40.0, delivery)
	assert.Equal(t, 400.0, total)

	// at the threshold: free delivery
	total, delivery = ComputeTotals(500, 0, 500, 40)
	assert.Equal(t, 0.0, delivery)
	assert.Equal(t, 500.0, total)

	// the threshold checks the pre-discount items total
	total, delivery = ComputeTotals(600, 550, 500, 40)
	assert.Equal(t, 0.0, delivery)
	assert.Equal(t, 50.0, total)

	// discount larger than the total clamps to zero
	total, _ = ComputeTotals(100, 150, 500, 40)
	assert.Equal(t, 0.0, total)
}

func TestAssembleChargesLiveCatalogPrice(t *testing.T) {
	catalog := fakeCatalog{prices: map[string]float64{"p1": 120, "p2/v1": 80}}
	svc := newTestService(catalog, &fakeStockStore{counts: map[stock.UnitRef]int{}}, &fakeCartStore{}, &fakeOrderStore{})

	cart := &models.Cart{
		UserID: "u1",
		Items: []models.CartItem{
			{ProductID: "p1", Quantity: 2, Price: 100}, // stale snapshot: live price is 120
			{ProductID: "p2", VariantID: "v1", Quantity: 1, Price: 80},
		},
	}

	order, lines, err := svc.assemble(context.Background(), cart, models.Address{}, "ord1")
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, 120.0, order.Items[0].Price)
	// items total 320 < 500: delivery fee applies
	assert.Equal(t, 40.0, order.DeliveryCharge)
	assert.Equal(t, 360.0, order.TotalAmount)
	assert.Equal(t, models.OrderPending, order.Status)

	require.Len(t, lines, 2)
	assert.Equal(t, stock.UnitRef{ProductID: "p2", VariantID: "v1"}, lines[1].Ref)
}

func TestAssembleAppliesCouponDiscount(t *testing.T) {
	catalog := fakeCatalog{prices: map[string]float64{"p1": 300}}
	svc := newTestService(catalog, &fakeStockStore{counts: map[stock.UnitRef]int{}}, &fakeCartStore{}, &fakeOrderStore{})

	cart := &models.Cart{
		UserID:        "u1",
		Items:         []models.CartItem{{ProductID: "p1", Quantity: 2, Price: 300}},
		CouponApplied: &models.CouponApplied{Code: "SAVE10", DiscountAmount: 60},
	}

	order, _, err := svc.assemble(context.Background(), cart, models.Address{}, "ord1")
	require.NoError(t, err)

	// 600 - 60, no delivery above the threshold
	assert.Equal(t, 540.0, order.TotalAmount)
	assert.Equal(t, 0.0, order.DeliveryCharge)
}

func TestAssembleRejectsVanishedProduct(t *testing.T) {
	svc := newTestService(fakeCatalog{prices: map[string]float64{}}, &fakeStockStore{counts: map[stock.UnitRef]int{}}, &fakeCartStore{}, &fakeOrderStore{})

	cart := &models.Cart{UserID: "u1", Items: []models.CartItem{{ProductID: "gone", Quantity: 1}}}

	_, _, err := svc.assemble(context.Background(), cart, models.Address{}, "ord1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
}

func TestCommitInsufficientStockLeavesNothingBehind(t *testing.T) {
	ref1 := stock.UnitRef{ProductID: "p1"}
	ref2 := stock.UnitRef{ProductID: "p2"}
	store := &fakeStockStore{counts: map[stock.UnitRef]int{ref1: 5, ref2: 0}}
	carts := &fakeCartStore{}
	orders := &fakeOrderStore{}
	svc := newTestService(fakeCatalog{}, store, carts, orders)

	err := svc.commit(context.Background(), &models.Order{OrderID: "ord1", UserID: "u1"}, []stock.Line{
		{Ref: ref1, Quantity: 2},
		{Ref: ref2, Quantity: 1},
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Empty(t, orders.orders)
	assert.False(t, carts.deleted)
	assert.Equal(t, 5, store.counts[ref1], "applied decrement must be compensated")
}

func TestCommitRestoresStockWhenPersistFails(t *testing.T) {
	ref := stock.UnitRef{ProductID: "p1"}
	store := &fakeStockStore{counts: map[stock.UnitRef]int{ref: 5}}
	carts := &fakeCartStore{}
	orders := &fakeOrderStore{insertErr: errors.New("duplicate key")}
	svc := newTestService(fakeCatalog{}, store, carts, orders)

	err := svc.commit(context.Background(), &models.Order{OrderID: "ord1", UserID: "u1"}, []stock.Line{{Ref: ref, Quantity: 3}})

	require.Error(t, err)
	assert.Equal(t, 5, store.counts[ref])
	assert.False(t, carts.deleted)
}

func TestCommitHappyPathConsumesCart(t *testing.T) {
	ref := stock.UnitRef{ProductID: "p1"}
	store := &fakeStockStore{counts: map[stock.UnitRef]int{ref: 5}}
	carts := &fakeCartStore{}
	orders := &fakeOrderStore{}
	svc := newTestService(fakeCatalog{}, store, carts, orders)

	err := svc.commit(context.Background(), &models.Order{OrderID: "ord1", UserID: "u1"}, []stock.Line{{Ref: ref, Quantity: 3}})

	require.NoError(t, err)
	require.Len(t, orders.orders, 1)
	assert.True(t, carts.deleted)
	assert.Equal(t, 2, store.counts[ref])
}

func TestConfirmOnlineRejectsDriftedTotal(t *testing.T) {
	ref := stock.UnitRef{ProductID: "p1"}
	catalog := fakeCatalog{prices: map[string]float64{"p1": 600}}
	store := &fakeStockStore{counts: map[stock.UnitRef]int{ref: 5}}
	carts := &fakeCartStore{cart: &models.Cart{UserID: "u1", Items: []models.CartItem{{ProductID: "p1", Quantity: 1, Price: 600}}}}
	orders := &fakeOrderStore{}
	svc := newTestService(catalog, store, carts, orders)

	// the gateway order was created for the total as priced at intent time
	intent := paymentIntent{UserID: "u1", Amount: 600, Currency: "INR"}

	// catalog repriced between intent and verification
	catalog.prices["p1"] = 650

	_, err := svc.ConfirmOnline(context.Background(), "u1", intent, models.Address{}, "order_gw", "pay_1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Empty(t, orders.orders, "no order may be written at a total the customer did not pay")
	assert.Equal(t, 5, store.counts[ref])
	assert.False(t, carts.deleted)
}

func TestConfirmOnlineRejectsCartMutatedAfterIntent(t *testing.T) {
	ref := stock.UnitRef{ProductID: "p1"}
	catalog := fakeCatalog{prices: map[string]float64{"p1": 600}}
	store := &fakeStockStore{counts: map[stock.UnitRef]int{ref: 5}}
	carts := &fakeCartStore{cart: &models.Cart{UserID: "u1", Items: []models.CartItem{{ProductID: "p1", Quantity: 2, Price: 600}}}}
	orders := &fakeOrderStore{}
	svc := newTestService(catalog, store, carts, orders)

	// intent priced a one-item cart; a second unit was added before verify
	intent := paymentIntent{UserID: "u1", Amount: 600, Currency: "INR"}

	_, err := svc.ConfirmOnline(context.Background(), "u1", intent, models.Address{}, "order_gw", "pay_1")
	require.Error(t, err)
	assert.Empty(t, orders.orders)
	assert.Equal(t, 5, store.counts[ref])
}

func TestConfirmOnlineCommitsMatchingTotal(t *testing.T) {
	ref := stock.UnitRef{ProductID: "p1"}
	catalog := fakeCatalog{prices: map[string]float64{"p1": 600}}
	store := &fakeStockStore{counts: map[stock.UnitRef]int{ref: 5}}
	carts := &fakeCartStore{cart: &models.Cart{UserID: "u1", Items: []models.CartItem{{ProductID: "p1", Quantity: 1, Price: 600}}}}
	orders := &fakeOrderStore{}
	svc := newTestService(catalog, store, carts, orders)

	intent := paymentIntent{UserID: "u1", Amount: 600, Currency: "INR"}

	order, err := svc.ConfirmOnline(context.Background(), "u1", intent, models.Address{}, "order_gw", "pay_1")
	require.NoError(t, err)

	require.Len(t, orders.orders, 1)
	assert.Equal(t, models.PaymentMethodOnline, order.PaymentMethod)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "order_gw", order.GatewayOrderID)
	assert.Equal(t, "pay_1", order.PaymentID)
	assert.Equal(t, 4, store.counts[ref])
	assert.True(t, carts.deleted)
}

func TestConfirmOnlineRejectsForeignIntent(t *testing.T) {
	ref := stock.UnitRef{ProductID: "p1"}
	store := &fakeStockStore{counts: map[stock.UnitRef]int{ref: 5}}
	carts := &fakeCartStore{cart: &models.Cart{UserID: "u1", Items: []models.CartItem{{ProductID: "p1", Quantity: 1, Price: 600}}}}
	orders := &fakeOrderStore{}
	svc := newTestService(fakeCatalog{prices: map[string]float64{"p1": 600}}, store, carts, orders)

	intent := paymentIntent{UserID: "u2", Amount: 600, Currency: "INR"}

	_, err := svc.ConfirmOnline(context.Background(), "u1", intent, models.Address{}, "order_gw", "pay_1")
	require.Error(t, err)
	assert.Empty(t, orders.orders)
	assert.Equal(t, 5, store.counts[ref])
}

func TestValidateCartRejectsEmpty(t *testing.T) {
	svc := newTestService(fakeCatalog{}, &fakeStockStore{counts: map[stock.UnitRef]int{}}, &fakeCartStore{cart: &models.Cart{UserID: "u1"}}, &fakeOrderStore{})

	_, err := svc.validateCart(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	svc.Carts = &fakeCartStore{cart: nil}
	_, err = svc.validateCart(context.Background(), "u1")
	require.Error(t, err)
}
