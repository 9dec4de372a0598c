package models

import "time"

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

const (
	ApplyToOrder       = "order"
	ApplyToProduct     = "product"
	ApplyToCategory    = "category"
	ApplyToSubcategory = "subcategory"
)

// Coupon is a discount rule. Exactly one target field is set according to
// ApplyTo: ProductIDs for "product", Category for "category", Subcategory
// for "subcategory", none for "order".
type Coupon struct {
	CouponID       string    `json:"couponId" bson:"couponid"`
	Code           string    `json:"code" bson:"code"`
	DiscountType   string    `json:"discountType" bson:"discounttype"`
	DiscountAmount float64   `json:"discountAmount" bson:"discountamount"`
	MinPurchase    float64   `json:"minPurchase" bson:"minpurchase"`
	MaxDiscount    float64   `json:"maxDiscount,omitempty" bson:"maxdiscount,omitempty"` // percentage only, 0 = uncapped
	UsageLimit     int       `json:"usageLimit" bson:"usagelimit"`                       // 0 = unlimited
	UsedCount      int       `json:"usedCount" bson:"usedcount"`
	ApplyTo        string    `json:"applyTo" bson:"applyto"`
	ProductIDs     []string  `json:"productIds,omitempty" bson:"productids,omitempty"`
	Category       string    `json:"category,omitempty" bson:"category,omitempty"`
	Subcategory    string    `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	ExpiryDate     time.Time `json:"expiryDate" bson:"expirydate"`
	IsActive       bool      `json:"isActive" bson:"isactive"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdat"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedat"`
}
