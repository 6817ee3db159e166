package model

type OrderItem struct {
	CompetitionID string `json:"competition_id"`
	Quantity      int    `json:"quantity"`
}

type ConfirmOrderRequest struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Items   []OrderItem `json:"items"`
}

type ConfirmOrderItemResult struct {
	CompetitionID string             `json:"competition_id"`
	Numbers       []int              `json:"numbers"`
	InstantWins   []InstantWinResult `json:"instant_wins,omitempty"`
}

type ConfirmOrderResponse struct {
	Items []ConfirmOrderItemResult `json:"items"`
}
