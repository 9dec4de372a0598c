package checkout

import (
	"context"
	"errors"

	"veloura/apperr"
	"veloura/db"
	"veloura/models"
	"veloura/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCartStore struct{}

func (mongoCartStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.CartCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (mongoCartStore) Delete(ctx context.Context, userID string) error {
	_, err := db.CartCollection.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

type mongoOrderStore struct{}

func (mongoOrderStore) Insert(ctx context.Context, order *models.Order) error {
	_, err := db.OrderCollection.InsertOne(ctx, order)
	return err
}

// addressRequest is the delivery block a checkout request carries: either a
// saved address reference or an inline address, optionally saved to the
// user's address book.
type addressRequest struct {
	AddressID   string          `json:"addressId"`
	Address     *models.Address `json:"address"`
	SaveAddress bool            `json:"saveAddress"`
}

// resolveAddress produces the delivery address for an order.
func resolveAddress(ctx context.Context, userID string, req addressRequest) (models.Address, error) {
	if req.AddressID != "" {
		var addr models.Address
		err := db.AddressCollection.FindOne(ctx, bson.M{"addressid": req.AddressID, "userId": userID}).Decode(&addr)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Address{}, apperr.NotFound("Address not found")
		}
		if err != nil {
			return models.Address{}, err
		}
		return addr, nil
	}

	if req.Address == nil {
		return models.Address{}, apperr.Validation("Delivery address is required")
	}
	addr := *req.Address
	if addr.Name == "" || addr.Phone == "" || addr.Street == "" || addr.City == "" || addr.Pincode == "" {
		return models.Address{}, apperr.Validation("Address is missing required fields")
	}

	if req.SaveAddress {
		addr.AddressID = utils.GetUUID()
		addr.UserID = userID
		if _, err := db.AddressCollection.InsertOne(ctx, addr); err != nil {
			return models.Address{}, err
		}
	}
	return addr, nil
}
