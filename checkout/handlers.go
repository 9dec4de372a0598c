package checkout

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"veloura/apperr"
	"veloura/models"
	"veloura/rdx"
	"veloura/utils"

	"github.com/julienschmidt/httprouter"
)

// intentTTL bounds how long a gateway order can sit unpaid before the parked
// checkout expires.
const intentTTL = 30 * time.Minute

// paymentIntent is the parked state between creating a gateway order and the
// client's out-of-band payment. Kept in Redis so verification is stateless
// in-process.
type paymentIntent struct {
	UserID   string  `json:"userId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PlaceOrder is the synchronous COD path: validate, decrement, persist, and
// clear the cart in one pass.
//
// POST /api/order/placeorder
func (s *Service) PlaceOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		addressRequest
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if body.PaymentMethod != models.PaymentMethodCOD {
		utils.RespondWithError(w, http.StatusBadRequest, "Online payments go through paymentIntent and paymentVerify")
		return
	}

	cart, err := s.validateCart(ctx, userID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	address, err := resolveAddress(ctx, userID, body.addressRequest)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	order, lines, err := s.assemble(ctx, cart, address, "ORD-"+utils.GetUUID())
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	order.PaymentMethod = models.PaymentMethodCOD
	order.PaymentStatus = models.PaymentPending

	if err := s.commit(ctx, order, lines); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, order)
}

// PaymentIntent prices the cart and registers a gateway order. No stock moves
// here; the decrement waits for a verified payment.
//
// POST /api/order/paymentIntent
func (s *Service) PaymentIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Currency string `json:"currency"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Currency == "" {
		body.Currency = "INR"
	}

	cart, err := s.validateCart(ctx, userID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	_, _, itemsTotal, err := s.buildOrder(ctx, cart)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	discount := 0.0
	if cart.CouponApplied != nil {
		discount = cart.CouponApplied.DiscountAmount
	}
	amount, _ := ComputeTotals(itemsTotal, discount, s.MinOrderAmount, s.DeliveryCharge)

	gwOrder, err := s.Gateway.CreateOrder(ctx, amount, body.Currency, "rcpt-"+utils.GetUUID())
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	intent := paymentIntent{UserID: userID, Amount: amount, Currency: body.Currency}
	data, _ := json.Marshal(intent)
	if err := rdx.SetWithExpiry("payintent:"+gwOrder.OrderID, string(data), intentTTL); err != nil {
		log.Println("PaymentIntent redis error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not store payment intent")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"order_id": gwOrder.OrderID,
		"amount":   gwOrder.Amount,
		"currency": gwOrder.Currency,
		"key_id":   s.Gateway.KeyID(),
	})
}

// PaymentVerify gates the ONLINE commit on the gateway signature. The HMAC
// check runs before any stock or order write: a tampered signature leaves
// stock untouched and creates nothing.
//
// POST /api/order/paymentVerify
func (s *Service) PaymentVerify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		addressRequest
		PaymentID      string `json:"razorpay_payment_id"`
		GatewayOrderID string `json:"razorpay_order_id"`
		Signature      string `json:"razorpay_signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if body.PaymentID == "" || body.GatewayOrderID == "" || body.Signature == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing payment verification fields")
		return
	}

	if !s.Gateway.VerifySignature(body.GatewayOrderID, body.PaymentID, body.Signature) {
		utils.RespondWithAppError(w, apperr.Signature("Payment signature verification failed"))
		return
	}

	intentKey := "payintent:" + body.GatewayOrderID
	raw := rdx.Get(intentKey)
	if raw == "" {
		utils.RespondWithAppError(w, apperr.NotFound("Payment intent not found or expired"))
		return
	}
	var intent paymentIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("Payment intent is malformed"))
		return
	}

	address, err := resolveAddress(ctx, userID, body.addressRequest)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	order, err := s.ConfirmOnline(ctx, userID, intent, address, body.GatewayOrderID, body.PaymentID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	rdx.Del(intentKey)
	utils.RespondWithJSON(w, http.StatusCreated, order)
}
