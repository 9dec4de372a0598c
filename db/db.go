package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection    *mongo.Collection
	ProductCollection *mongo.Collection
	VariantCollection *mongo.Collection
	CartCollection    *mongo.Collection
	CouponCollection  *mongo.Collection
	OrderCollection   *mongo.Collection
	AddressCollection *mongo.Collection
	Client            *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	UserCollection = Client.Database("shopdb").Collection("users")
	ProductCollection = Client.Database("shopdb").Collection("products")
	VariantCollection = Client.Database("shopdb").Collection("variants")
	CartCollection = Client.Database("shopdb").Collection("carts")
	CouponCollection = Client.Database("shopdb").Collection("coupons")
	OrderCollection = Client.Database("shopdb").Collection("orders")
	AddressCollection = Client.Database("shopdb").Collection("addresses")

	if err := createIndexes(context.TODO()); err != nil {
		log.Printf("Index creation failed: %v", err)
	}
}

// createIndexes enforces the uniqueness the core relies on: one cart per user,
// unique coupon codes, unique order ids.
func createIndexes(ctx context.Context) error {
	_, err := CartCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"userId": 1},
		Options: options.Index().SetUnique(true).SetName("unique_cart_user"),
	})
	if err != nil {
		return err
	}
	_, err = CouponCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"code": 1},
		Options: options.Index().SetUnique(true).SetName("unique_coupon_code"),
	})
	if err != nil {
		return err
	}
	_, err = OrderCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"orderid": 1},
		Options: options.Index().SetUnique(true).SetName("unique_order_id"),
	})
	return err
}
