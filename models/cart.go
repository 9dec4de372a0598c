package models

import "time"

// CartItem is one line in a cart. VariantID is empty for bare products.
// Price and OfferPrice are snapshots taken when the line was added; the
// checkout re-reads the live catalog price, so the snapshot is advisory.
type CartItem struct {
	ProductID   string    `json:"productId" bson:"productid"`
	VariantID   string    `json:"variantId,omitempty" bson:"variantid,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Subcategory string    `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Price       float64   `json:"price" bson:"price"`
	OfferPrice  *float64  `json:"offerPrice,omitempty" bson:"offerprice,omitempty"`
	AddedAt     time.Time `json:"addedAt" bson:"addedat"`
}

// UnitPrice returns the effective per-unit price: offer price when set,
// list price otherwise.
func (it CartItem) UnitPrice() float64 {
	if it.OfferPrice != nil && *it.OfferPrice > 0 {
		return *it.OfferPrice
	}
	return it.Price
}

// LineTotal is quantity times effective unit price.
func (it CartItem) LineTotal() float64 {
	return it.UnitPrice() * float64(it.Quantity)
}

// CouponApplied is the priced coupon snapshot embedded in a cart or order.
// It is derived state: recomputed or cleared on every cart mutation, never
// edited in place.
type CouponApplied struct {
	CouponID       string  `json:"couponId" bson:"couponid"`
	Code           string  `json:"code" bson:"code"`
	DiscountType   string  `json:"discountType" bson:"discounttype"`
	OriginalAmount float64 `json:"originalAmount" bson:"originalamount"`
	DiscountAmount float64 `json:"discountAmount" bson:"discountamount"`
	FinalAmount    float64 `json:"finalAmount" bson:"finalamount"`
}

// Cart holds a user's in-progress purchase. One cart per user, unique on userId.
type Cart struct {
	UserID        string         `json:"userId" bson:"userId"`
	Items         []CartItem     `json:"items" bson:"items"`
	TotalPrice    float64        `json:"totalPrice" bson:"totalprice"`
	CouponApplied *CouponApplied `json:"couponApplied,omitempty" bson:"couponapplied,omitempty"`
	CouponStatus  bool           `json:"couponStatus" bson:"couponstatus"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedat"`
}
