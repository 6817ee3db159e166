package model

import "time"

type Competition struct {
	ID               string  `json:"id,omitempty"`
	Title            string  `json:"title,omitempty"`
	Slug             string  `json:"slug,omitempty"`
	Description      string  `json:"description,omitempty"`
	MaxTickets       int     `json:"max_tickets,omitempty"`
	TicketsSold      int     `json:"tickets_sold"`
	TicketsRemaining int     `json:"tickets_remaining"`
	Price            float64 `json:"price,omitempty"`
	DrawAt           string  `json:"draw_at,omitempty"`
	DrawMode         string  `json:"draw_mode,omitempty"`
	MustSellOut      bool    `json:"must_sell_out,omitempty"`
	InstantWinsCount int     `json:"instant_wins_count,omitempty"`
	Status           string  `json:"status,omitempty"`
	CreatedAt        string  `json:"created_at,omitempty"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

type CreateCompetitionRequest struct {
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	MaxTickets       int       `json:"max_tickets"`
	Price            float64   `json:"price"`
	DrawAt           time.Time `json:"draw_at"`
	DrawMode         string    `json:"draw_mode"`
	MustSellOut      bool      `json:"must_sell_out"`
	InstantWinsCount int       `json:"instant_wins_count"`
}

type CreateCompetitionResponse struct {
	ID string `json:"id"`
}

type GetCompetitionRequest struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

type GetCompetitionResponse Competition

type GetListCompetitionRequest struct {
	Statuses string `json:"statuses"`
}

type GetListCompetitionResponse struct {
	Competitions []Competition `json:"competitions"`
}

type SetCompetitionStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type SetCompetitionStatusResponse struct{}
