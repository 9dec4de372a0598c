package models

import "time"

const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "ONLINE"
)

// Order statuses
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderProcessed = "processed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
	OrderOnRefund  = "onrefund"
)

// Payment statuses
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
	PaymentOnRefund = "onrefund"
)

// OrderItem carries the price actually charged at purchase time. It is never
// re-read from the catalog afterwards.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productid"`
	VariantID string  `json:"variantId,omitempty" bson:"variantid,omitempty"`
	Name      string  `json:"name" bson:"name"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Address is a delivery destination, either supplied inline at checkout or
// referenced from the user's saved address book.
type Address struct {
	AddressID string `json:"addressId,omitempty" bson:"addressid,omitempty"`
	UserID    string `json:"userId,omitempty" bson:"userId,omitempty"`
	Name      string `json:"name" bson:"name"`
	Phone     string `json:"phone" bson:"phone"`
	Street    string `json:"street" bson:"street"`
	City      string `json:"city" bson:"city"`
	State     string `json:"state" bson:"state"`
	Pincode   string `json:"pincode" bson:"pincode"`
	Country   string `json:"country,omitempty" bson:"country,omitempty"`
}

// Order is created once, atomically with its stock decrement. Only the status
// fields change afterwards, through the lifecycle manager. Orders are never
// hard-deleted.
type Order struct {
	OrderID        string         `json:"orderId" bson:"orderid"`
	UserID         string         `json:"userId" bson:"userId"`
	Items          []OrderItem    `json:"items" bson:"items"`
	Address        Address        `json:"address" bson:"address"`
	TotalAmount    float64        `json:"totalAmount" bson:"totalamount"`
	DeliveryCharge float64        `json:"deliveryCharge" bson:"deliverycharge"`
	CouponApplied  *CouponApplied `json:"couponApplied,omitempty" bson:"couponapplied,omitempty"`
	Status         string         `json:"status" bson:"status"`
	PaymentStatus  string         `json:"paymentStatus" bson:"paymentstatus"`
	PaymentMethod  string         `json:"paymentMethod" bson:"paymentmethod"`
	GatewayOrderID string         `json:"gatewayOrderId,omitempty" bson:"gatewayorderid,omitempty"`
	PaymentID      string         `json:"paymentId,omitempty" bson:"paymentid,omitempty"`
	IsDeleted      bool           `json:"isDeleted" bson:"isdeleted"`
	CreatedAt      time.Time      `json:"createdAt" bson:"createdat"`
	UpdatedAt      time.Time      `json:"updatedAt" bson:"updatedat"`
}
