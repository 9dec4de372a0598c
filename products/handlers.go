package products

import (
	"context"
	"errors"
	"net/http"
	"time"

	"veloura/db"
	"veloura/models"
	"veloura/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetProduct returns one product with its variants.
func GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	productID := ps.ByName("productid")

	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productid": productID, "isdeleted": false}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve product")
		return
	}

	cursor, err := db.VariantCollection.Find(ctx, bson.M{"productid": productID, "isdeleted": false})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve variants")
		return
	}
	defer cursor.Close(ctx)

	var variants []models.Variant
	if err := cursor.All(ctx, &variants); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error reading variants")
		return
	}
	if len(variants) == 0 {
		variants = []models.Variant{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"product":  product,
		"variants": variants,
	})
}
