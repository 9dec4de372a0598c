package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"veloura/apperr"
	"veloura/db"
	"veloura/models"
	"veloura/rdx"
	"veloura/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const cacheTTL = 5 * time.Minute

// couponStore is the persistence seam of the apply/recheck flows.
type couponStore interface {
	Load(ctx context.Context, couponID string) (models.Coupon, error)
	Consume(ctx context.Context, c models.Coupon) error
	Refund(ctx context.Context, couponID string)
	Attach(ctx context.Context, userID string, applied *models.CouponApplied) error
	Detach(ctx context.Context, userID string) error
}

var store couponStore = mongoCouponStore{}

type mongoCouponStore struct{}

// Load reads a coupon by id, Redis cache first.
func (mongoCouponStore) Load(ctx context.Context, couponID string) (models.Coupon, error) {
	var c models.Coupon

	if cached := rdx.Get("coupon:" + couponID); cached != "" {
		if err := json.Unmarshal([]byte(cached), &c); err == nil {
			return c, nil
		}
	}

	err := db.CouponCollection.FindOne(ctx, bson.M{"couponid": couponID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return c, apperr.NotFound("Coupon not found")
	}
	if err != nil {
		return c, err
	}

	if data, err := json.Marshal(c); err == nil {
		if err := rdx.SetWithExpiry("coupon:"+couponID, string(data), cacheTTL); err != nil {
			log.Println("Coupon cache write error:", err)
		}
	}
	return c, nil
}

// Consume atomically takes one usage slot. The filter re-checks the limit so
// concurrent redemptions cannot oversell slots; a non-match means the limit
// was hit between validation and consumption.
func (mongoCouponStore) Consume(ctx context.Context, c models.Coupon) error {
	filter := bson.M{"couponid": c.CouponID}
	if c.UsageLimit > 0 {
		filter["usedcount"] = bson.M{"$lt": c.UsageLimit}
	}

	res, err := db.CouponCollection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedcount": 1}})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return apperr.Conflict("Coupon usage limit reached")
	}
	rdx.Del("coupon:" + c.CouponID)
	return nil
}

// Refund returns a slot Consume took when the attach that follows fails.
func (mongoCouponStore) Refund(ctx context.Context, couponID string) {
	if _, err := db.CouponCollection.UpdateOne(ctx, bson.M{"couponid": couponID}, bson.M{"$inc": bson.M{"usedcount": -1}}); err != nil {
		log.Println("Coupon usage refund error:", err)
	}
	rdx.Del("coupon:" + couponID)
}

func (mongoCouponStore) Attach(ctx context.Context, userID string, applied *models.CouponApplied) error {
	update := bson.M{"$set": bson.M{
		"couponapplied": applied,
		"couponstatus":  true,
		"updatedat":     time.Now(),
	}}
	_, err := db.CartCollection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}

func (mongoCouponStore) Detach(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{
		"couponapplied": nil,
		"couponstatus":  false,
		"updatedat":     time.Now(),
	}}
	_, err := db.CartCollection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}

// attachCoupon is the apply pipeline: load, price, consume a usage slot, and
// attach the snapshot to the cart. A failed attach refunds the slot it just
// took, so a burned slot always has a coupon on a cart to show for it.
func attachCoupon(ctx context.Context, userID string, cart *models.Cart, couponID string, now time.Time) (*models.CouponApplied, error) {
	c, err := store.Load(ctx, couponID)
	if err != nil {
		return nil, err
	}

	applied, err := Price(c, cart, now)
	if err != nil {
		return nil, err
	}

	if err := store.Consume(ctx, c); err != nil {
		return nil, err
	}
	if err := store.Attach(ctx, userID, applied); err != nil {
		store.Refund(ctx, c.CouponID)
		return nil, err
	}
	return applied, nil
}

// ApplyCoupon validates, prices, and attaches a coupon to the user's cart,
// consuming one usage slot on success.
//
// POST /api/coupon/apply
func ApplyCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		CouponID string `json:"couponId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CouponID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "couponId is required")
		return
	}

	var cart models.Cart
	err := db.CartCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && len(cart.Items) == 0) {
		utils.RespondWithError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	if err != nil {
		log.Println("ApplyCoupon cart read error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not read cart")
		return
	}

	applied, err := attachCoupon(ctx, userID, &cart, body.CouponID, time.Now())
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	cart.CouponApplied = applied
	cart.CouponStatus = true
	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// RemoveCoupon unsets the applied coupon; totalPrice becomes the customer
// facing total again. Consumed usage slots are not refunded.
//
// PATCH /api/coupon
func RemoveCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := store.Detach(ctx, userID); err != nil {
		log.Println("RemoveCoupon cart update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to remove coupon")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "removed"})
}

func clearCoupon(cart *models.Cart) {
	cart.CouponApplied = nil
	cart.CouponStatus = false
}

// Recheck silently re-validates the applied coupon after a cart mutation.
// If the coupon no longer passes, the snapshot is cleared without error and
// without refunding the usage slot; if it still passes, the amounts are
// recomputed against the new cart contents. The caller persists the cart.
func Recheck(ctx context.Context, cart *models.Cart) {
	if cart.CouponApplied == nil {
		return
	}

	c, err := store.Load(ctx, cart.CouponApplied.CouponID)
	if err != nil {
		// Only a missing coupon invalidates the snapshot; a transient load
		// failure must not strip a discount the customer still holds.
		if apperr.Status(err) == http.StatusNotFound {
			clearCoupon(cart)
		}
		return
	}

	// Skip the usage-limit check here: this cart already holds its slot.
	recheck := c
	recheck.UsageLimit = 0

	applied, err := Price(recheck, cart, time.Now())
	if err != nil {
		clearCoupon(cart)
		return
	}
	cart.CouponApplied = applied
	cart.CouponStatus = true
}
