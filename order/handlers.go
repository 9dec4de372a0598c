package order

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"veloura/db"
	"veloura/models"
	"veloura/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChangeStatus is the admin transition endpoint. No ownership gate and no
// pending-only restriction; the only hard guard is that cancelled is terminal.
//
// PATCH /api/order/change-status/:orderId
func (m *Manager) ChangeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderId")

	var body struct {
		Status string `json:"status"`
		Type   string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "status and type are required")
		return
	}
	if body.Type == "" {
		body.Type = KindOrder
	}

	o, err := m.UpdateStatus(ctx, orderID, body.Status, body.Type)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, o)
}

// CancelOrder is the customer cancellation endpoint.
//
// POST /api/order/cancel-order/:orderId
func (m *Manager) CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	o, err := m.CancelByCustomer(ctx, ps.ByName("orderId"), userID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, o)
}

// GetOrders returns the authenticated user's orders, newest first.
//
// GET /api/order/get-orders
func GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	opts := options.Find().SetSort(bson.M{"createdat": -1})
	cursor, err := db.OrderCollection.Find(ctx, bson.M{"userId": userID, "isdeleted": false}, opts)
	if err != nil {
		log.Println("GetOrders find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		log.Println("GetOrders cursor error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error reading orders")
		return
	}
	if len(orders) == 0 {
		orders = []models.Order{}
	}

	utils.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrderStats aggregates order count and revenue by status.
//
// GET /api/order/get-order-stats  (admin)
func GetOrderStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"isdeleted": false}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":     "$status",
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalamount"},
		}}},
	}

	cursor, err := db.OrderCollection.Aggregate(ctx, pipeline)
	if err != nil {
		log.Println("GetOrderStats aggregate error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not aggregate orders")
		return
	}
	defer cursor.Close(ctx)

	type statusStat struct {
		Status  string  `bson:"_id" json:"status"`
		Count   int     `bson:"count" json:"count"`
		Revenue float64 `bson:"revenue" json:"revenue"`
	}

	var stats []statusStat
	if err := cursor.All(ctx, &stats); err != nil {
		log.Println("GetOrderStats cursor error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error reading stats")
		return
	}
	if len(stats) == 0 {
		stats = []statusStat{}
	}

	utils.RespondWithJSON(w, http.StatusOK, stats)
}
