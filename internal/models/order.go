package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"localserve/internal/tracker"
)

// OrderCustomer carries the free-text contact details collected for
// cash-on-delivery orders.
type OrderCustomer struct {
	Name    string `bson:"name" json:"name"`
	Contact string `bson:"contact" json:"contact"`
	Address string `bson:"address" json:"address"`
}

// OrderTotals holds the derived money values of an order.
type OrderTotals struct {
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
	Discount    float64 `bson:"discount" json:"discount"`
	DeliveryFee float64 `bson:"deliveryFee" json:"deliveryFee"`
	Total       float64 `bson:"total" json:"total"`
}

// Order defines the persisted order document. Exactly one of Customer
// (cash on delivery) and Address (every other payment method) is set.
type Order struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	CartOwner      string              `bson:"cartOwner" json:"-"`
	Items          []CartItem          `bson:"items" json:"items"`
	Totals         OrderTotals         `bson:"totals" json:"totals"`
	Customer       *OrderCustomer      `bson:"customer,omitempty" json:"customer,omitempty"`
	Address        *Address            `bson:"address,omitempty" json:"address,omitempty"`
	PaymentMethod  string              `bson:"paymentMethod" json:"paymentMethod"`
	PaymentRef     string              `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	TimeSlot       string              `bson:"timeSlot" json:"timeSlot"`
	TimeSlotLabel  string              `bson:"timeSlotLabel" json:"timeSlotLabel"`
	Instructions   string              `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Status         tracker.Status      `bson:"status" json:"status"`
	History        []tracker.Event     `bson:"history" json:"history"`
	DeliveryPerson *tracker.Courier    `bson:"deliveryPerson,omitempty" json:"deliveryPerson,omitempty"`
	ETA            *time.Time          `bson:"eta,omitempty" json:"eta,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}
