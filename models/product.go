package models

import "time"

const (
	StockStatusIn  = "instock"
	StockStatusOut = "outofstock"
)

// Product is a catalog entry. A product either sells directly or through
// variants, each with its own price and stock counter.
type Product struct {
	ProductID   string    `json:"productId" bson:"productid"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Category    string    `json:"category" bson:"category"`
	Subcategory string    `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	OfferPrice  *float64  `json:"offerPrice,omitempty" bson:"offerprice,omitempty"`
	Stock       int       `json:"stock" bson:"stock"`
	StockStatus string    `json:"stockStatus" bson:"stockstatus"`
	Images      []string  `json:"images,omitempty" bson:"images,omitempty"`
	IsDeleted   bool      `json:"isDeleted" bson:"isdeleted"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdat"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedat"`
}

// Variant is a purchasable SKU-level specialization of a product
// (size/color etc.) with its own stock and price.
type Variant struct {
	VariantID   string    `json:"variantId" bson:"variantid"`
	ProductID   string    `json:"productId" bson:"productid"`
	Name        string    `json:"name" bson:"name"`
	Price       float64   `json:"price" bson:"price"`
	OfferPrice  *float64  `json:"offerPrice,omitempty" bson:"offerprice,omitempty"`
	Stock       int       `json:"stock" bson:"stock"`
	StockStatus string    `json:"stockStatus" bson:"stockstatus"`
	IsDeleted   bool      `json:"isDeleted" bson:"isdeleted"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdat"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedat"`
}
