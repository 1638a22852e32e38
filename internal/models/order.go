package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItemModifier records one resolved modifier selection on an order
// line, denormalized so the order stays readable after catalog edits.
type OrderItemModifier struct {
	Group      string `bson:"group" json:"group"`
	Option     string `bson:"option" json:"option"`
	PriceDelta int    `bson:"priceDelta" json:"priceDelta"`
}

// OrderItemPart is one constituent of a committed container line.
type OrderItemPart struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Count     int                `bson:"count" json:"count"`
}

// OrderItem is the immutable snapshot of a cart line at commit time.
type OrderItem struct {
	ProductID primitive.ObjectID  `bson:"productId" json:"productId"`
	Name      string              `bson:"name" json:"name"`
	UnitPrice int                 `bson:"unitPrice" json:"unitPrice"`
	Quantity  int                 `bson:"quantity" json:"quantity"`
	Tier      string              `bson:"tier,omitempty" json:"tier,omitempty"`
	Modifiers []OrderItemModifier `bson:"modifiers,omitempty" json:"modifiers,omitempty"`
	Recipe    []OrderItemPart     `bson:"recipe,omitempty" json:"recipe,omitempty"`
	LineTotal int                 `bson:"lineTotal" json:"lineTotal"`
}

// OrderCustomer captures the contact details for an order.
type OrderCustomer struct {
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	Note    string `bson:"note,omitempty" json:"note,omitempty"`
}

// Order defines the persisted order document. Created only by a
// successful atomic commit; mutated afterwards only through status
// transitions.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Items          []OrderItem        `bson:"items" json:"items"`
	Total          int                `bson:"total" json:"total"`
	Customer       OrderCustomer      `bson:"customer" json:"customer"`
	PaymentMethod  string             `bson:"paymentMethod" json:"paymentMethod"`
	CashTendered   int                `bson:"cashTendered,omitempty" json:"cashTendered,omitempty"`
	DeliveryMethod string             `bson:"deliveryMethod" json:"deliveryMethod"`
	SchedulingType string             `bson:"schedulingType" json:"schedulingType"`
	ScheduledFor   *time.Time         `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	EtaMinutes     int                `bson:"etaMinutes,omitempty" json:"etaMinutes,omitempty"`
	Status         string             `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
