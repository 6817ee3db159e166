package model

type Roll struct {
	RollNumber int    `json:"roll_number"`
	Ticket     int    `json:"ticket"`
	IsSold     bool   `json:"is_sold"`
	Result     string `json:"result"`
	Message    string `json:"message,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

type Draw struct {
	ID                 string `json:"id,omitempty"`
	CompetitionID      string `json:"competition_id,omitempty"`
	WinningTicket      int    `json:"winning_ticket,omitempty"`
	WinnerUserID       string `json:"winner_user_id,omitempty"`
	DrawMode           string `json:"draw_mode,omitempty"`
	SeedHash           string `json:"seed_hash,omitempty"`
	Rolls              []Roll `json:"rolls,omitempty"`
	Status             string `json:"status,omitempty"`
	ForcedRedraw       bool   `json:"forced_redraw"`
	ForcedRedrawReason string `json:"forced_redraw_reason,omitempty"`
	StartedAt          string `json:"started_at,omitempty"`
	CompletedAt        string `json:"completed_at,omitempty"`
}

type ExecuteDrawRequest struct {
	CompetitionID string `json:"competition_id"`
}

type ExecuteDrawResponse struct {
	Draw Draw `json:"draw"`
}

type ForceRedrawRequest struct {
	CompetitionID string `json:"competition_id"`
	Reason        string `json:"reason"`
}

type ForceRedrawResponse struct {
	Draw Draw `json:"draw"`
}

type GetDrawRequest struct {
	CompetitionID string `json:"competition_id"`
}

type GetDrawResponse struct {
	Draw Draw `json:"draw"`
}

type GetDrawHistoryRequest struct {
	CompetitionID string `json:"competition_id"`
}

type GetDrawHistoryResponse struct {
	Draws []Draw `json:"draws"`
}
