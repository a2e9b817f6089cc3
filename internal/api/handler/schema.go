package handler

import (
	"time"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type createDeliveryRequest struct {
	SenderName       string  `json:"sender_name"       validate:"required,max=100"`
	SenderPhone      string  `json:"sender_phone"      validate:"required,max=20"`
	RecipientName    string  `json:"recipient_name"    validate:"required,max=100"`
	RecipientPhone   string  `json:"recipient_phone"   validate:"required,max=20"`
	RecipientAddress string  `json:"recipient_address" validate:"required,max=255"`
	GoodsType        string  `json:"goods_type"        validate:"required,max=100"`
	Quantity         int     `json:"quantity"          validate:"gte=1"`
	Amount           float64 `json:"amount"            validate:"gte=0"`
	PaymentBy        string  `json:"payment_by"        validate:"max=50"`
	Status           string  `json:"status"            validate:"omitempty,oneof=Pending 'In Transit' Delivered"`
}

type updateStatusRequest struct {
	Status         string `json:"status"          validate:"required,oneof=Pending 'In Transit' Delivered"`
	DeliveryPerson string `json:"delivery_person" validate:"max=100"`
}

type deliveryLinks struct {
	Self string `json:"self"`
}

type deliveryResponse struct {
	*domain.Delivery
	Links deliveryLinks `json:"_links"`
}

func toDeliveryResponse(d *domain.Delivery) deliveryResponse {
	return deliveryResponse{
		Delivery: d,
		Links:    deliveryLinks{Self: "/v1/deliveries/" + d.DisplayID},
	}
}

type deliveryListResponse struct {
	Items []deliveryResponse `json:"items"`
	Count int                `json:"count"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type auditEntryResponse struct {
	ID            string    `json:"id"`
	ActorUserID   *string   `json:"actor_user_id"`
	ActorUsername string    `json:"actor_username"`
	Action        string    `json:"action"`
	ResourceType  string    `json:"resource_type,omitempty"`
	ResourceID    string    `json:"resource_id,omitempty"`
	Details       string    `json:"details,omitempty"`
	SourceAddress string    `json:"source_address"`
	ClientAgent   string    `json:"client_agent"`
	Timestamp     time.Time `json:"timestamp"`
}

type auditPageResponse struct {
	Items      []auditEntryResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"per_page"`
	TotalPages int                  `json:"total_pages"`
}
