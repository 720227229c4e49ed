package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusApproved OrderStatus = "APPROVED"
	OrderStatusRejected OrderStatus = "REJECTED"
	OrderStatusExpired  OrderStatus = "EXPIRED"
	OrderStatusRefunded OrderStatus = "REFUNDED"
)

// CodeStatus is the redemption state of a sold gift-card code.
type CodeStatus string

const (
	CodeStatusValid         CodeStatus = "VALID"
	CodeStatusUsed          CodeStatus = "USED"
	CodeStatusPartiallyUsed CodeStatus = "PARTIALLY_USED"
	CodeStatusExpired       CodeStatus = "EXPIRED"
	CodeStatusPending       CodeStatus = "PENDING"
)

type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type OrderGiftItem struct {
	RecipientName string `json:"recipient_name"`
	Quantity      int    `json:"quantity"`
}

type OrderItem struct {
	ID                 string          `json:"id"`
	RegisterGiftcardID string          `json:"register_giftcard_id"`
	EnterpriseID       int64           `json:"enterprise_id"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	SellerAmount       decimal.Decimal `json:"seller_amount"`
	Status             CodeStatus      `json:"status"`
	GiftItems          []OrderGiftItem `json:"gift_items,omitempty"`
}

type Order struct {
	ID          string              `json:"id"`
	OwnerID     int64               `json:"owner_id"`
	Owner       *Owner              `json:"owner,omitempty"`
	Status      OrderStatus         `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	NetAmount   decimal.NullDecimal `json:"net_amount"`
	CreatedAt   time.Time           `json:"created_at"`
	Items       []OrderItem         `json:"items"`
}
