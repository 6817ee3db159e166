package entity

import (
	"database/sql"
	"time"

	"github.com/compdraw/backend/pkg/enum"
)

type DrawStatus string

var (
	DrawPending   = enum.New(DrawStatus("pending"))
	DrawRunning   = enum.New(DrawStatus("running"))
	DrawCompleted = enum.New(DrawStatus("completed"))
	DrawFailed    = enum.New(DrawStatus("failed"))
)

type RollResult string

var (
	RollWinner   = enum.New(RollResult("winner"))
	RollRejected = enum.New(RollResult("rejected"))
)

// Roll is one attempt of the draw protocol, stored inside Draw.Rolls as an
// ordered JSON sequence.
type Roll struct {
	RollNumber int        `json:"roll_number"`
	Ticket     int        `json:"ticket"`
	IsSold     bool       `json:"is_sold"`
	Result     RollResult `json:"result"`
	Message    string     `json:"message,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

type Draw struct {
	Base

	CompetitionID string      `gorm:"index"`
	Competition   Competition `gorm:"foreignKey:CompetitionID"`

	WinningTicketID sql.NullString

	DrawMode DrawMode

	// Seed is the secret 256-bit value behind the fairness commitment. It
	// must never leave the server through any public interface.
	Seed     string
	SeedHash string

	Rolls Array[Roll]

	Status DrawStatus

	ForcedRedraw       bool
	ForcedRedrawReason string

	StartedAt   time.Time
	CompletedAt sql.NullTime
}

// DrawRetry is a durable single-shot retry job for an exhausted draw.
type DrawRetry struct {
	Base

	CompetitionID string      `gorm:"index"`
	Competition   Competition `gorm:"foreignKey:CompetitionID"`

	ExecuteAt time.Time
	Attempted bool
}
