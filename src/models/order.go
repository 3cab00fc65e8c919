package models

// MOrderEvent is the payload of an order_status frame.
type MOrderEvent struct {
	OrderID    string  `json:"order_id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"qty"`
	Filled     float64 `json:"filled"`
	LimitPrice float64 `json:"limit_price"`
	Status     string  `json:"status"`
	Timestamp  int64   `json:"ts"`
}
