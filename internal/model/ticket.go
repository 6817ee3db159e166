package model

type Ticket struct {
	ID            string `json:"id,omitempty"`
	CompetitionID string `json:"competition_id,omitempty"`
	Number        int    `json:"number"`
	OrderID       string `json:"order_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	IsWinner      bool   `json:"is_winner"`
	IsInstantWin  bool   `json:"is_instant_win"`
	AllocatedAt   string `json:"allocated_at,omitempty"`
}

type AllocateTicketsRequest struct {
	CompetitionID string `json:"competition_id"`
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	Quantity      int    `json:"quantity"`
}

type AllocateTicketsResponse struct {
	Numbers []int `json:"numbers"`
}

type GetMyTicketsRequest struct {
	CompetitionID string `json:"competition_id"`
}

type GetMyTicketsResponse struct {
	Tickets []Ticket `json:"tickets"`
}
