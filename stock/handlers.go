package stock

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"veloura/db"
	"veloura/models"
	"veloura/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handlers exposes the availability endpoints over one ledger instance.
type Handlers struct {
	Ledger *Ledger
}

func NewHandlers(ledger *Ledger) *Handlers {
	return &Handlers{Ledger: ledger}
}

// CheckAvailability answers whether a single unit can currently satisfy a
// quantity. The answer is advisory: checkout re-validates with a conditional
// decrement.
//
// POST /api/cart/check-availability
func (h *Handlers) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductID == "" || body.Quantity < 1 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ref := UnitRef{ProductID: body.ProductID, VariantID: body.VariantID}
	available, err := h.Ledger.CheckAvailability(ctx, ref, body.Quantity)
	if err != nil {
		log.Println("CheckAvailability error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not check availability")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"available": available})
}

// CheckStock reports, per cart line, whether the requested quantity is still
// in stock for the authenticated user's cart.
//
// GET /api/cart/check-stock
func (h *Handlers) CheckStock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var cart models.Cart
	err := db.CartCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		log.Println("CheckStock cart read error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not read cart")
		return
	}

	type lineStatus struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId,omitempty"`
		Quantity  int    `json:"quantity"`
		InStock   bool   `json:"inStock"`
	}

	statuses := make([]lineStatus, 0, len(cart.Items))
	allInStock := true
	for _, item := range cart.Items {
		ref := UnitRef{ProductID: item.ProductID, VariantID: item.VariantID}
		ok, err := h.Ledger.CheckAvailability(ctx, ref, item.Quantity)
		if err != nil {
			log.Println("CheckStock availability error:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Could not check stock")
			return
		}
		if !ok {
			allInStock = false
		}
		statuses = append(statuses, lineStatus{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			InStock:   ok,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"allInStock": allInStock,
		"items":      statuses,
	})
}
