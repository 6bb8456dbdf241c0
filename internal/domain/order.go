package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus is case-insensitive; an empty string reads as pending.
func ParseOrderStatus(s string) (OrderStatus, error) {
	if strings.TrimSpace(s) == "" {
		return OrderStatusPending, nil
	}
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

// OrderStatusOrPending reads a status coming from the backend. Statuses the client
// does not know are shown as pending.
func OrderStatusOrPending(s string) OrderStatus {
	status, err := ParseOrderStatus(s)
	if err != nil {
		return OrderStatusPending
	}
	return status
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type ShippingDetails struct {
	Name    string
	Address string
}

type OrderItem struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Total     decimal.Decimal
}

// Order is the read-only projection of an order created by the backend.
type Order struct {
	ID          string
	UserID      string
	Items       []OrderItem
	TotalAmount decimal.Decimal
	Shipping    ShippingDetails
	Status      OrderStatus
	CreatedAt   time.Time
}

// OrderRef is what a successful submission returns.
type OrderRef struct {
	ID     string
	Status OrderStatus
}
