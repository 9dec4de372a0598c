package coupon

import (
	"testing"
	"time"

	"veloura/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2036, 3, 1, 12, 0, 0, 0, time.UTC)

func activeCoupon() models.Coupon {
	return models.Coupon{
		CouponID:       "c1",
		Code:           "SAVE10",
		DiscountType:   models.DiscountPercentage,
		DiscountAmount: 10,
		ApplyTo:        models.ApplyToOrder,
		ExpiryDate:     now.Add(24 * time.Hour),
		IsActive:       true,
	}
}

func cartWith(items ...models.CartItem) *models.Cart {
	c := &models.Cart{Items: items}
	for _, it := range items {
		c.TotalPrice += it.LineTotal()
	}
	return c
}

func TestValidateRejectionOrder(t *testing.T) {
	// inactive AND expired AND exhausted: inactive wins, it is checked first
	c := activeCoupon()
	c.IsActive = false
	c.ExpiryDate = now.Add(-time.Hour)
	c.UsageLimit = 1
	c.UsedCount = 1

	err := Validate(c, 1000, now)
	require.Error(t, err)
	assert.Equal(t, "Coupon is inactive", err.Error())

	c.IsActive = true
	err = Validate(c, 1000, now)
	require.Error(t, err)
	assert.Equal(t, "Coupon has expired", err.Error())

	c.ExpiryDate = now.Add(time.Hour)
	err = Validate(c, 1000, now)
	require.Error(t, err)
	assert.Equal(t, "Coupon usage limit reached", err.Error())

	c.UsedCount = 0
	c.MinPurchase = 2000
	err = Validate(c, 1000, now)
	require.Error(t, err)
	assert.Equal(t, "Cart total is below the coupon's minimum purchase", err.Error())

	c.MinPurchase = 500
	assert.NoError(t, Validate(c, 1000, now))
}

func TestValidateMinPurchaseOnlyGatesOrderScope(t *testing.T) {
	c := activeCoupon()
	c.ApplyTo = models.ApplyToCategory
	c.Category = "shoes"
	c.MinPurchase = 2000

	assert.NoError(t, Validate(c, 100, now))
}

func TestValidateZeroUsageLimitIsUnlimited(t *testing.T) {
	c := activeCoupon()
	c.UsageLimit = 0
	c.UsedCount = 9999

	assert.NoError(t, Validate(c, 1000, now))
}

func TestPriceDiscountPercentageFloorsAndCaps(t *testing.T) {
	c := activeCoupon()

	// 10% of 405 is 40.5, floored to 40
	assert.Equal(t, 40.0, PriceDiscount(c, 405))

	c.MaxDiscount = 30
	assert.Equal(t, 30.0, PriceDiscount(c, 500))

	// cap only bites when the raw discount exceeds it
	assert.Equal(t, 20.0, PriceDiscount(c, 200))
}

func TestPriceDiscountFixedClampsToBase(t *testing.T) {
	c := activeCoupon()
	c.DiscountType = models.DiscountFixed
	c.DiscountAmount = 150

	assert.Equal(t, 150.0, PriceDiscount(c, 400))
	assert.Equal(t, 90.0, PriceDiscount(c, 90))
}

func TestComputeBaseAmountByScope(t *testing.T) {
	items := []models.CartItem{
		{ProductID: "p1", Category: "shoes", Subcategory: "running", Quantity: 2, Price: 100},
		{ProductID: "p2", Category: "shoes", Subcategory: "casual", Quantity: 1, Price: 50},
		{ProductID: "p3", Category: "bags", Subcategory: "travel", Quantity: 1, Price: 200},
	}

	assert.Equal(t, 450.0, ComputeBaseAmount(Scope{Kind: models.ApplyToOrder}, items))
	assert.Equal(t, 250.0, ComputeBaseAmount(Scope{Kind: models.ApplyToProduct, ProductIDs: []string{"p2", "p3"}}, items))
	assert.Equal(t, 250.0, ComputeBaseAmount(Scope{Kind: models.ApplyToCategory, Category: "shoes"}, items))
	assert.Equal(t, 200.0, ComputeBaseAmount(Scope{Kind: models.ApplyToSubcategory, Subcategory: "running"}, items))
	assert.Equal(t, 0.0, ComputeBaseAmount(Scope{Kind: models.ApplyToCategory, Category: "hats"}, items))
}

func TestPriceOrderScopeTenPercent(t *testing.T) {
	cart := cartWith(
		models.CartItem{ProductID: "p1", Quantity: 2, Price: 150},
		models.CartItem{ProductID: "p2", Quantity: 1, Price: 100},
	)
	require.Equal(t, 400.0, cart.TotalPrice)

	applied, err := Price(activeCoupon(), cart, now)
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", applied.Code)
	assert.Equal(t, 400.0, applied.OriginalAmount)
	assert.Equal(t, 40.0, applied.DiscountAmount)
	assert.Equal(t, 360.0, applied.FinalAmount)
}

func TestPriceScopedDiscountNetsOffWholeCart(t *testing.T) {
	cart := cartWith(
		models.CartItem{ProductID: "p1", Category: "shoes", Quantity: 1, Price: 200},
		models.CartItem{ProductID: "p2", Category: "bags", Quantity: 1, Price: 300},
	)

	c := activeCoupon()
	c.ApplyTo = models.ApplyToCategory
	c.Category = "shoes"

	applied, err := Price(c, cart, now)
	require.NoError(t, err)

	// base is the shoes line only, but the discount reduces the full total
	assert.Equal(t, 20.0, applied.DiscountAmount)
	assert.Equal(t, 500.0, applied.OriginalAmount)
	assert.Equal(t, 480.0, applied.FinalAmount)
}

func TestPriceScopedCouponWithEmptyBase(t *testing.T) {
	cart := cartWith(models.CartItem{ProductID: "p1", Category: "bags", Quantity: 1, Price: 300})

	c := activeCoupon()
	c.ApplyTo = models.ApplyToCategory
	c.Category = "shoes"

	applied, err := Price(c, cart, now)
	require.NoError(t, err)

	// nothing eligible: valid coupon, zero discount
	assert.Equal(t, 0.0, applied.DiscountAmount)
	assert.Equal(t, 300.0, applied.FinalAmount)
}
