package models

// Order line event types published after successful mutations.
const (
	LineEventAdded   = "line_added"
	LineEventUpdated = "quantity_updated"
	LineEventRemoved = "line_removed"
)

// LineEvent describes a single order line mutation for downstream consumers.
type LineEvent struct {
	EventID   string `json:"event_id"`   // EventID is a unique identifier for the event.
	Timestamp int64  `json:"timestamp"`  // Timestamp is the Unix timestamp (in seconds) when the mutation occurred.
	Type      string `json:"type"`       // Type is one of the LineEvent* constants.
	OrderID   int64  `json:"order_id"`   // OrderID identifies the mutated order.
	ProductID int64  `json:"product_id"` // ProductID identifies the product on the line.
	Quantity  int    `json:"quantity"`   // Quantity is the line quantity after the mutation (prior quantity for removals).
	Price     string `json:"price"`      // Price is the snapshot line total after the mutation, as a decimal string.
}
