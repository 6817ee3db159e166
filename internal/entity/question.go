package entity

import "time"

type Question struct {
	Base

	Text string

	OptionA string
	OptionB string
	OptionC string
	OptionD string

	CorrectOption string

	Category   string
	Difficulty int
	Active     bool `gorm:"index"`
}

type QuestionAttempt struct {
	Base

	UserID string `gorm:"index:idx_attempt_user_competition"`
	User   User   `gorm:"foreignKey:UserID"`

	CompetitionID string      `gorm:"index:idx_attempt_user_competition"`
	Competition   Competition `gorm:"foreignKey:CompetitionID"`

	QuestionID string   `gorm:"index"`
	Question   Question `gorm:"foreignKey:QuestionID"`

	SelectedOption string
	IsCorrect      bool
	AttemptNumber  int
	AttemptedAt    time.Time
}
