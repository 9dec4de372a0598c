package products

import (
	"context"
	"errors"

	"veloura/apperr"
	"veloura/db"
	"veloura/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Resolved is a live catalog read for one purchasable unit: either a bare
// product or one of its variants.
type Resolved struct {
	ProductID   string
	VariantID   string
	Name        string
	Category    string
	Subcategory string
	Price       float64
	OfferPrice  *float64
	Stock       int
}

// UnitPrice returns the authoritative per-unit price (offer price wins).
func (res Resolved) UnitPrice() float64 {
	if res.OfferPrice != nil && *res.OfferPrice > 0 {
		return *res.OfferPrice
	}
	return res.Price
}

// Catalog resolves live prices for cart and checkout.
type Catalog interface {
	Resolve(ctx context.Context, productID, variantID string) (Resolved, error)
}

type mongoCatalog struct{}

// NewCatalog returns the MongoDB-backed catalog.
func NewCatalog() Catalog {
	return mongoCatalog{}
}

// Resolve reads the product (and variant when variantID is set), rejecting
// soft-deleted entries. Variant name is rendered as "product / variant" and
// variant pricing overrides the product's.
func (mongoCatalog) Resolve(ctx context.Context, productID, variantID string) (Resolved, error) {
	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productid": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Resolved{}, apperr.NotFound("Product not found")
	}
	if err != nil {
		return Resolved{}, err
	}
	if product.IsDeleted {
		return Resolved{}, apperr.NotFound("Product no longer available")
	}

	res := Resolved{
		ProductID:   product.ProductID,
		Name:        product.Name,
		Category:    product.Category,
		Subcategory: product.Subcategory,
		Price:       product.Price,
		OfferPrice:  product.OfferPrice,
		Stock:       product.Stock,
	}

	if variantID == "" {
		return res, nil
	}

	var variant models.Variant
	err = db.VariantCollection.FindOne(ctx, bson.M{"variantid": variantID, "productid": productID}).Decode(&variant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Resolved{}, apperr.NotFound("Variant not found")
	}
	if err != nil {
		return Resolved{}, err
	}
	if variant.IsDeleted {
		return Resolved{}, apperr.NotFound("Variant no longer available")
	}

	res.VariantID = variant.VariantID
	res.Name = product.Name + " / " + variant.Name
	res.Price = variant.Price
	res.OfferPrice = variant.OfferPrice
	res.Stock = variant.Stock
	return res, nil
}
