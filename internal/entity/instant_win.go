package entity

import (
	"database/sql"

	"github.com/compdraw/backend/pkg/enum"
)

type PrizeType string

var (
	PrizeCredit   = enum.New(PrizeType("credit"))
	PrizeCoupon   = enum.New(PrizeType("coupon"))
	PrizeCash     = enum.New(PrizeType("cash"))
	PrizePhysical = enum.New(PrizeType("physical"))
)

type InstantWin struct {
	Base

	CompetitionID string      `gorm:"uniqueIndex:idx_iw_competition_number"`
	Competition   Competition `gorm:"foreignKey:CompetitionID"`

	TicketNumber int `gorm:"uniqueIndex:idx_iw_competition_number"`

	PrizeType  PrizeType
	PrizeValue float64
	PrizeLabel string

	Claimed         bool
	ClaimedByUserID string
	ClaimedAt       sql.NullTime
}

type PayoutStatus string

var (
	PayoutPending   = enum.New(PayoutStatus("pending"))
	PayoutCompleted = enum.New(PayoutStatus("completed"))
)

// PrizePayout is a queued manual action for prize kinds that cannot be
// fulfilled synchronously (cash transfers, physical shipping).
type PrizePayout struct {
	Base

	CompetitionID string `gorm:"index"`
	TicketNumber  int

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	PrizeType  PrizeType
	PrizeValue float64
	PrizeLabel string

	Status      PayoutStatus
	CompletedAt sql.NullTime
}

// Coupon is a single-use credit voucher issued as an instant-win prize.
type Coupon struct {
	Base

	Code string `gorm:"unique"`

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	Amount      float64
	Description string
	Used        bool
}
