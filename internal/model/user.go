package model

// AccessToken is the object embedded in the JWT access token.
type AccessToken struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GetTicketsRemainingRequest struct {
	CompetitionID string `json:"competition_id"`
}

type GetTicketsRemainingResponse struct {
	TicketsRemaining int `json:"tickets_remaining"`
}

type Winner struct {
	CompetitionID string `json:"competition_id"`
	Number        int    `json:"number"`
	UserID        string `json:"user_id"`
}

type GetWinnersRequest struct {
	CompetitionID string `json:"competition_id"`
}

type GetWinnersResponse struct {
	Winners []Winner `json:"winners"`
}
