package domain

import (
	"fmt"
	"time"
)

// DeliveryStatus is the lifecycle state shown on the dashboard.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "Pending"
	StatusInTransit DeliveryStatus = "In Transit"
	StatusDelivered DeliveryStatus = "Delivered"
)

// Valid reports whether s is a known status.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered:
		return true
	}
	return false
}

// Delivery is a tracked parcel. DisplayID is unique across all deliveries and
// the store enforces it.
type Delivery struct {
	ID               string         `json:"id" bson:"_id,omitempty"`
	DisplayID        string         `json:"display_id" bson:"display_id"`
	SenderName       string         `json:"sender_name" bson:"sender_name"`
	SenderPhone      string         `json:"sender_phone" bson:"sender_phone"`
	RecipientName    string         `json:"recipient_name" bson:"recipient_name"`
	RecipientPhone   string         `json:"recipient_phone" bson:"recipient_phone"`
	RecipientAddress string         `json:"recipient_address" bson:"recipient_address"`
	DeliveryPerson   string         `json:"delivery_person,omitempty" bson:"delivery_person,omitempty"`
	GoodsType        string         `json:"goods_type" bson:"goods_type"`
	Quantity         int            `json:"quantity" bson:"quantity"`
	Amount           float64        `json:"amount" bson:"amount"`
	Expenses         float64        `json:"expenses" bson:"expenses"`
	PaymentBy        string         `json:"payment_by" bson:"payment_by"`
	Status           DeliveryStatus `json:"status" bson:"status"`
	CreatedAt        time.Time      `json:"created_at" bson:"created_at"`
	CreatedBy        string         `json:"created_by" bson:"created_by"`
}

// AssignableBy reports whether a staff member with the given username may act
// on d: the delivery must be unassigned or already assigned to them. The
// comparison is on the username string, so a renamed account loses access to
// deliveries assigned under its old name.
func (d *Delivery) AssignableBy(username string) bool {
	return d.DeliveryPerson == "" || d.DeliveryPerson == username
}

// DisplayIDDateLayout renders the date part of a display id (YYMMDD).
const DisplayIDDateLayout = "060102"

// DisplayAllocation is a derived display id: the date part followed by the
// zero-padded daily sequence.
type DisplayAllocation struct {
	DatePart string
	Sequence int
	Rendered string
}

// NewDisplayAllocation renders the allocation for day and seq.
func NewDisplayAllocation(day time.Time, seq int) DisplayAllocation {
	datePart := day.Format(DisplayIDDateLayout)
	return DisplayAllocation{
		DatePart: datePart,
		Sequence: seq,
		Rendered: fmt.Sprintf("%s%04d", datePart, seq),
	}
}
