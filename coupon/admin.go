package coupon

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"veloura/db"
	"veloura/models"
	"veloura/rdx"
	"veloura/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// validateCouponInput enforces the shape rules: known type/scope, exactly one
// target field for the scope, minPurchase required only for order scope.
func validateCouponInput(c models.Coupon) string {
	if strings.TrimSpace(c.Code) == "" {
		return "code is required"
	}
	if c.DiscountType != models.DiscountPercentage && c.DiscountType != models.DiscountFixed {
		return "discountType must be percentage or fixed"
	}
	if c.DiscountAmount <= 0 {
		return "discountAmount must be positive"
	}
	if c.DiscountType == models.DiscountPercentage && c.DiscountAmount > 100 {
		return "percentage discount cannot exceed 100"
	}
	if c.MaxDiscount > 0 && c.DiscountType != models.DiscountPercentage {
		return "maxDiscount applies to percentage coupons only"
	}
	if c.ExpiryDate.IsZero() {
		return "expiryDate is required"
	}

	switch c.ApplyTo {
	case models.ApplyToOrder:
		if c.MinPurchase <= 0 {
			return "minPurchase must be positive for order coupons"
		}
		if len(c.ProductIDs) > 0 || c.Category != "" || c.Subcategory != "" {
			return "order coupons take no target"
		}
	case models.ApplyToProduct:
		if len(c.ProductIDs) == 0 {
			return "productIds required for product coupons"
		}
		if c.Category != "" || c.Subcategory != "" {
			return "product coupons take only productIds"
		}
	case models.ApplyToCategory:
		if c.Category == "" {
			return "category required for category coupons"
		}
		if len(c.ProductIDs) > 0 || c.Subcategory != "" {
			return "category coupons take only a category"
		}
	case models.ApplyToSubcategory:
		if c.Subcategory == "" {
			return "subcategory required for subcategory coupons"
		}
		if len(c.ProductIDs) > 0 || c.Category != "" {
			return "subcategory coupons take only a subcategory"
		}
	default:
		return "applyTo must be order, product, category or subcategory"
	}
	return ""
}

// POST /api/coupon  (admin)
func CreateCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if msg := validateCouponInput(c); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	c.CouponID = utils.GetUUID()
	c.UsedCount = 0
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	if _, err := db.CouponCollection.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusBadRequest, "Coupon code already exists")
			return
		}
		log.Println("CreateCoupon insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create coupon")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, c)
}

// PATCH /api/coupon/:id  (admin)
func UpdateCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	couponID := ps.ByName("id")

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	// Only admin-editable fields; usedCount moves solely via redemption.
	allowed := map[string]string{
		"discountAmount": "discountamount",
		"minPurchase":    "minpurchase",
		"maxDiscount":    "maxdiscount",
		"usageLimit":     "usagelimit",
		"expiryDate":     "expirydate",
		"isActive":       "isactive",
	}
	set := bson.M{"updatedat": time.Now()}
	for key, val := range body {
		field, ok := allowed[key]
		if !ok {
			continue
		}
		if key == "expiryDate" {
			if s, ok := val.(string); ok {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					utils.RespondWithError(w, http.StatusBadRequest, "expiryDate must be RFC3339")
					return
				}
				set[field] = t
				continue
			}
		}
		set[field] = val
	}

	res, err := db.CouponCollection.UpdateOne(ctx, bson.M{"couponid": couponID}, bson.M{"$set": set})
	if err != nil {
		log.Println("UpdateCoupon error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update coupon")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Coupon not found")
		return
	}

	rdx.Del("coupon:" + couponID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "updated"})
}

// DELETE /api/coupon/:id  (admin)
func DeleteCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	couponID := ps.ByName("id")

	res, err := db.CouponCollection.DeleteOne(ctx, bson.M{"couponid": couponID})
	if err != nil {
		log.Println("DeleteCoupon error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete coupon")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Coupon not found")
		return
	}

	rdx.Del("coupon:" + couponID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "deleted"})
}

// GET /api/coupon/search?q=
func SearchCoupons(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filter := bson.M{}
	if q != "" {
		filter["code"] = bson.M{"$regex": q, "$options": "i"}
	}

	cursor, err := db.CouponCollection.Find(ctx, filter)
	if err != nil {
		log.Println("SearchCoupons find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not search coupons")
		return
	}
	defer cursor.Close(ctx)

	var coupons []models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		log.Println("SearchCoupons cursor error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error reading coupons")
		return
	}
	if len(coupons) == 0 {
		coupons = []models.Coupon{}
	}

	utils.RespondWithJSON(w, http.StatusOK, coupons)
}
