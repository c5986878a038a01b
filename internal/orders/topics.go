package orders

// Lifecycle stream: every realtime event, keyed by order.
const TopicOrderLifecycle = "bookstore.order.lifecycle"

// Partition key = order_id, so events of one order stay in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
