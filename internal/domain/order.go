package domain

import "time"

// OrderStatus enumerates order fulfilment states.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is a known fulfilment state.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is one product line within an order.
type OrderItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
	Size      string  `bson:"size,omitempty" json:"size,omitempty"`
}

// TrackingEvent is one entry in an order's tracking history.
type TrackingEvent struct {
	Status      OrderStatus `bson:"status" json:"status"`
	Location    string      `bson:"location,omitempty" json:"location,omitempty"`
	Description string      `bson:"description,omitempty" json:"description,omitempty"`
	Timestamp   time.Time   `bson:"timestamp" json:"timestamp"`
}

// ShippingAddress is the order destination.
type ShippingAddress struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// Order is a placed purchase.
type Order struct {
	ID              string          `bson:"_id,omitempty" json:"id"`
	OrderNumber     string          `bson:"orderNumber" json:"orderNumber"`
	UserID          string          `bson:"userId" json:"userId"`
	Items           []OrderItem     `bson:"items" json:"items"`
	TotalAmount     float64         `bson:"totalAmount" json:"totalAmount"`
	Discount        float64         `bson:"discount" json:"discount"`
	ShippingCost    float64         `bson:"shippingCost" json:"shippingCost"`
	FinalAmount     float64         `bson:"finalAmount" json:"finalAmount"`
	CouponCode      string          `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	ShippingAddress ShippingAddress `bson:"shippingAddress" json:"shippingAddress"`
	Status          OrderStatus     `bson:"status" json:"status"`
	TrackingHistory []TrackingEvent `bson:"trackingHistory,omitempty" json:"trackingHistory,omitempty"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}
