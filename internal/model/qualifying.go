package model

type Question struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
}

type IssueQuestionRequest struct {
	CompetitionID string `json:"competition_id"`
}

type IssueQuestionResponse struct {
	Qualified bool     `json:"qualified"`
	Question  Question `json:"question,omitempty"`
	ExpiresAt string   `json:"expires_at,omitempty"`
}

type SubmitAnswerRequest struct {
	CompetitionID string `json:"competition_id"`
	QuestionID    string `json:"question_id"`
	Answer        string `json:"answer"`
}

type SubmitAnswerResponse struct {
	Correct           bool  `json:"correct"`
	Qualified         bool  `json:"qualified"`
	AttemptsRemaining int   `json:"attempts_remaining"`
	CooldownSeconds   int64 `json:"cooldown_seconds"`
}

type GetQualifyingStatusRequest struct {
	CompetitionID string `json:"competition_id"`
}

type GetQualifyingStatusResponse struct {
	Qualified         bool  `json:"qualified"`
	AttemptsRemaining int   `json:"attempts_remaining"`
	CooldownSeconds   int64 `json:"cooldown_seconds"`
}

type CreateQuestionRequest struct {
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	Category      string `json:"category"`
	Difficulty    int    `json:"difficulty"`
}

type CreateQuestionResponse struct {
	ID string `json:"id"`
}
