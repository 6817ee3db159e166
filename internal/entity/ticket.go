package entity

import "time"

type Ticket struct {
	Base

	CompetitionID string      `gorm:"uniqueIndex:idx_competition_number;index:idx_competition_user"`
	Competition   Competition `gorm:"foreignKey:CompetitionID"`

	OrderID string `gorm:"index"`

	UserID string `gorm:"index:idx_competition_user"`
	User   User   `gorm:"foreignKey:UserID"`

	Number int `gorm:"uniqueIndex:idx_competition_number"`

	IsWinner bool

	IsInstantWin         bool
	InstantWinPrizeType  PrizeType
	InstantWinPrizeValue float64
	InstantWinPrizeLabel string

	AllocatedAt time.Time
}
