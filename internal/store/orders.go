package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tryon-platform/server/internal/domain"
)

const orderNumberPrefix = "TRYON"

// OrderStore persists orders and their tracking history.
type OrderStore struct {
	col *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{col: db.Collection("orders")}
}

func (s *OrderStore) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = newOrderNumber()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.TrackingHistory = append(order.TrackingHistory, domain.TrackingEvent{
		Status:      order.Status,
		Description: "Order placed",
		Timestamp:   now,
	})
	if _, err := s.col.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("store: create order: %w", err)
	}
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get order: %w", err)
	}
	return &order, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("store: decode orders: %w", err)
	}
	return orders, nil
}

func (s *OrderStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("store: decode orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus advances an order to a new fulfilment state and appends the
// matching tracking event.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, location, description string) error {
	if description == "" {
		description = defaultTrackingDescription(status)
	}
	event := domain.TrackingEvent{
		Status:      status,
		Location:    location,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  bson.M{"status": status, "updatedAt": event.Timestamp},
		"$push": bson.M{"trackingHistory": event},
	})
	if err != nil {
		return fmt.Errorf("store: update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return orderNumberPrefix + "-" + suffix
}

func defaultTrackingDescription(status domain.OrderStatus) string {
	switch status {
	case domain.OrderStatusConfirmed:
		return "Order confirmed"
	case domain.OrderStatusProcessing:
		return "Order is being prepared"
	case domain.OrderStatusShipped:
		return "Package handed to the carrier"
	case domain.OrderStatusOutForDelivery:
		return "Package is out for delivery"
	case domain.OrderStatusDelivered:
		return "Package delivered"
	case domain.OrderStatusCancelled:
		return "Order cancelled"
	default:
		return "Order placed"
	}
}
