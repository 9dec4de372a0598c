package coupon

import (
	"math"
	"time"

	"veloura/apperr"
	"veloura/models"
)

// Scope is the tagged form of a coupon's applyTo target: the subset of cart
// lines its discount base is computed over.
type Scope struct {
	Kind        string
	ProductIDs  []string
	Category    string
	Subcategory string
}

func ScopeOf(c models.Coupon) Scope {
	return Scope{
		Kind:        c.ApplyTo,
		ProductIDs:  c.ProductIDs,
		Category:    c.Category,
		Subcategory: c.Subcategory,
	}
}

// ComputeBaseAmount sums the line totals the scope selects. Category and
// subcategory matching relies on the category snapshot carried on each cart
// line.
func ComputeBaseAmount(scope Scope, items []models.CartItem) float64 {
	base := 0.0
	switch scope.Kind {
	case models.ApplyToOrder:
		for _, item := range items {
			base += item.LineTotal()
		}
	case models.ApplyToProduct:
		eligible := make(map[string]bool, len(scope.ProductIDs))
		for _, id := range scope.ProductIDs {
			eligible[id] = true
		}
		for _, item := range items {
			if eligible[item.ProductID] {
				base += item.LineTotal()
			}
		}
	case models.ApplyToCategory:
		for _, item := range items {
			if item.Category == scope.Category {
				base += item.LineTotal()
			}
		}
	case models.ApplyToSubcategory:
		for _, item := range items {
			if item.Subcategory == scope.Subcategory {
				base += item.LineTotal()
			}
		}
	}
	return base
}

// PriceDiscount turns the eligible base into a discount amount. Percentage
// discounts floor to whole units and honor the optional cap; fixed discounts
// never exceed the eligible base.
func PriceDiscount(c models.Coupon, base float64) float64 {
	switch c.DiscountType {
	case models.DiscountPercentage:
		discount := math.Floor(base * c.DiscountAmount / 100)
		if c.MaxDiscount > 0 && discount > c.MaxDiscount {
			discount = c.MaxDiscount
		}
		return discount
	case models.DiscountFixed:
		if c.DiscountAmount > base {
			return base
		}
		return c.DiscountAmount
	}
	return 0
}

// Validate runs the rejection checks in their fixed order: active, not
// expired, usage slots left, and (order scope only) minimum purchase met.
// Existence is the lookup's concern.
func Validate(c models.Coupon, cartTotal float64, now time.Time) error {
	if !c.IsActive {
		return apperr.Conflict("Coupon is inactive")
	}
	if now.After(c.ExpiryDate) {
		return apperr.Conflict("Coupon has expired")
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return apperr.Conflict("Coupon usage limit reached")
	}
	if c.ApplyTo == models.ApplyToOrder && cartTotal < c.MinPurchase {
		return apperr.Conflict("Cart total is below the coupon's minimum purchase")
	}
	return nil
}

// Price validates the coupon against the cart and produces the embedded
// snapshot. The discount is netted off the whole cart total even when the
// base was computed from a subset of lines.
func Price(c models.Coupon, cart *models.Cart, now time.Time) (*models.CouponApplied, error) {
	if err := Validate(c, cart.TotalPrice, now); err != nil {
		return nil, err
	}

	base := ComputeBaseAmount(ScopeOf(c), cart.Items)
	discount := PriceDiscount(c, base)

	return &models.CouponApplied{
		CouponID:       c.CouponID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		OriginalAmount: cart.TotalPrice,
		DiscountAmount: discount,
		FinalAmount:    cart.TotalPrice - discount,
	}, nil
}
