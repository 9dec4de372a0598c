package stock

import (
	"context"
	"errors"

	"veloura/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoStore keeps stock counters on the product/variant documents themselves.
// Decrements go through a filtered $inc so the availability check and the
// subtraction are one atomic document update.
type mongoStore struct{}

// NewMongoStore returns the MongoDB-backed stock store.
func NewMongoStore() Store {
	return mongoStore{}
}

func collectionAndFilter(ref UnitRef) (*mongo.Collection, bson.M) {
	if ref.VariantID != "" {
		return db.VariantCollection, bson.M{"variantid": ref.VariantID, "productid": ref.ProductID}
	}
	return db.ProductCollection, bson.M{"productid": ref.ProductID}
}

func (mongoStore) Available(ctx context.Context, ref UnitRef) (int, error) {
	coll, filter := collectionAndFilter(ref)

	var doc struct {
		Stock int `bson:"stock"`
	}
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Stock, nil
}

func (mongoStore) DecrementIfAvailable(ctx context.Context, ref UnitRef, qty int) (bool, error) {
	coll, filter := collectionAndFilter(ref)
	filter["stock"] = bson.M{"$gte": qty}

	res, err := coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": -qty}})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	syncStockStatus(ctx, ref)
	return true, nil
}

func (mongoStore) Increment(ctx context.Context, ref UnitRef, qty int) error {
	coll, filter := collectionAndFilter(ref)

	if _, err := coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": qty}}); err != nil {
		return err
	}
	syncStockStatus(ctx, ref)
	return nil
}

// syncStockStatus refreshes the derived instock/outofstock flag. Both updates
// are conditional on the current counter, so racing writers converge.
func syncStockStatus(ctx context.Context, ref UnitRef) {
	coll, filter := collectionAndFilter(ref)

	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	out["stock"] = bson.M{"$lte": 0}
	_, _ = coll.UpdateOne(ctx, out, bson.M{"$set": bson.M{"stockstatus": "outofstock"}})

	in := bson.M{}
	for k, v := range filter {
		in[k] = v
	}
	in["stock"] = bson.M{"$gt": 0}
	_, _ = coll.UpdateOne(ctx, in, bson.M{"$set": bson.M{"stockstatus": "instock"}})
}
