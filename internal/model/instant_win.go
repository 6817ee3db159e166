package model

type InstantWinPrize struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

type GenerateInstantWinsRequest struct {
	CompetitionID string            `json:"competition_id"`
	Count         int               `json:"count"`
	Prizes        []InstantWinPrize `json:"prizes"`
}

type GenerateInstantWinsResponse struct {
	Count int `json:"count"`
}

type InstantWinResult struct {
	Number int             `json:"number"`
	Prize  InstantWinPrize `json:"prize"`
}

type CheckInstantWinsRequest struct {
	CompetitionID string `json:"competition_id"`
	OrderID       string `json:"order_id"`
}

type CheckInstantWinsResponse struct {
	Wins []InstantWinResult `json:"wins"`
}

type GetMyInstantWinsRequest struct{}

type GetMyInstantWinsResponse struct {
	Wins []InstantWinResult `json:"wins"`
}

type CompetitionInstantWin struct {
	Number     int             `json:"number"`
	Prize      InstantWinPrize `json:"prize"`
	WinnerName string          `json:"winner_name,omitempty"`
	ClaimedAt  string          `json:"claimed_at,omitempty"`
}

type GetCompetitionInstantWinsRequest struct {
	CompetitionID string `json:"competition_id"`
}

type GetCompetitionInstantWinsResponse struct {
	Wins []CompetitionInstantWin `json:"wins"`
}
