package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
)

var errNoOrderID = errors.New("missing order_id")

func encodeWorkItem(item orders.WorkItem) ([]byte, error) {
	if item.Items == nil {
		item.Items = []orders.LineMessage{}
	}
	return json.Marshal(item)
}

func decodeWorkItem(b []byte) (orders.WorkItem, error) {
	var item orders.WorkItem
	if err := json.Unmarshal(b, &item); err != nil {
		return item, fmt.Errorf("decode work item: %w", err)
	}
	if item.OrderID == "" {
		return item, fmt.Errorf("decode work item: %w", errNoOrderID)
	}
	return item, nil
}
