package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LineRequest is one requested line as sent by the client. Both fields are
// kept raw because clients send book ids as strings or numbers.
type LineRequest struct {
	BookID   json.RawMessage `json:"book_id"`
	Quantity json.RawMessage `json:"quantity,omitempty"`
}

type LineDetail struct {
	BookID       int             `json:"book_id"`
	Title        string          `json:"title"`
	Quantity     int             `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
}

// LineMessage is the subset of a line forwarded to the fulfillment consumer.
type LineMessage struct {
	BookID   int `json:"book_id"`
	Quantity int `json:"quantity"`
}

// WorkItem is the queue payload, one per order.
type WorkItem struct {
	OrderID string        `json:"order_id"`
	Items   []LineMessage `json:"items"`
}

// Draft is a validated order that has not been recorded yet.
type Draft struct {
	Items []LineDetail
	Total decimal.Decimal
}

type Order struct {
	ID             string          `json:"order_id"`
	Items          []LineDetail    `json:"items"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Status         Status          `json:"status"`
	UserIdentifier string          `json:"user_identifier"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (o Order) WorkItem() WorkItem {
	msgs := make([]LineMessage, 0, len(o.Items))
	for _, it := range o.Items {
		msgs = append(msgs, LineMessage{BookID: it.BookID, Quantity: it.Quantity})
	}
	return WorkItem{OrderID: o.ID, Items: msgs}
}

func (o Order) clone() Order {
	o.Items = append([]LineDetail(nil), o.Items...)
	return o
}
