package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"veloura/coupon"
	"veloura/db"
	"veloura/models"
	"veloura/products"
	"veloura/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handlers owns the cart endpoints. Price snapshots come from the injected
// catalog so tests can swap the live reads out.
type Handlers struct {
	Catalog products.Catalog
}

func NewHandlers(catalog products.Catalog) *Handlers {
	return &Handlers{Catalog: catalog}
}

func loadCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.CartCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func saveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := db.CartCollection.ReplaceOne(ctx, bson.M{"userId": cart.UserID}, cart, opts)
	return err
}

// AddToCart merges quantity into an existing (product, variant) line or
// appends a new line with a fresh price snapshot, then recomputes the total
// and re-validates any applied coupon.
//
// POST /api/cart/add-to-cart
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Println("AddToCart decode error:", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if body.ProductID == "" || body.Quantity < 1 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing or invalid fields")
		return
	}

	resolved, err := h.Catalog.Resolve(ctx, body.ProductID, body.VariantID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	cart, err := loadCart(ctx, userID)
	if err != nil {
		log.Println("AddToCart cart read error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not read cart")
		return
	}

	UpsertItem(cart, models.CartItem{
		ProductID:   resolved.ProductID,
		VariantID:   resolved.VariantID,
		Name:        resolved.Name,
		Category:    resolved.Category,
		Subcategory: resolved.Subcategory,
		Quantity:    body.Quantity,
		Price:       resolved.Price,
		OfferPrice:  resolved.OfferPrice,
		AddedAt:     time.Now(),
	})
	coupon.Recheck(ctx, cart)

	if err := saveCart(ctx, cart); err != nil {
		log.Println("AddToCart save error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add to cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, cart)
}

// RemoveFromCart removes the line matching (product, variant) exactly.
//
// DELETE /api/cart/remove-from-cart
func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "productId is required")
		return
	}

	cart, err := loadCart(ctx, userID)
	if err != nil {
		log.Println("RemoveFromCart cart read error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not read cart")
		return
	}

	if !RemoveLine(cart, body.ProductID, body.VariantID) {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found in cart")
		return
	}
	coupon.Recheck(ctx, cart)

	if err := saveCart(ctx, cart); err != nil {
		log.Println("RemoveFromCart save error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// UpdateCartQuantity increments or decrements one line; decrementing below 1
// removes the line.
//
// PATCH /api/cart/update-cart-quantity
func (h *Handlers) UpdateCartQuantity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Action    string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if body.Action != ActionIncrement && body.Action != ActionDecrement {
		utils.RespondWithError(w, http.StatusBadRequest, "action must be increment or decrement")
		return
	}

	cart, err := loadCart(ctx, userID)
	if err != nil {
		log.Println("UpdateCartQuantity cart read error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not read cart")
		return
	}

	if !ApplyQuantityAction(cart, body.ProductID, body.VariantID, body.Action) {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found in cart")
		return
	}
	coupon.Recheck(ctx, cart)

	if err := saveCart(ctx, cart); err != nil {
		log.Println("UpdateCartQuantity save error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// GET /api/cart/get-cart
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cart, err := loadCart(ctx, userID)
	if err != nil {
		log.Println("GetCart error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// POST /api/cart/clear-cart
func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if _, err := db.CartCollection.DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
		log.Println("ClearCart error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "cleared"})
}
