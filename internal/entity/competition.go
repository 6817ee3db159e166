package entity

import (
	"time"

	"github.com/compdraw/backend/pkg/enum"
)

type CompetitionStatus string

var (
	CompetitionDraft     = enum.New(CompetitionStatus("draft"))
	CompetitionLive      = enum.New(CompetitionStatus("live"))
	CompetitionPaused    = enum.New(CompetitionStatus("paused"))
	CompetitionSoldOut   = enum.New(CompetitionStatus("sold_out"))
	CompetitionDrawing   = enum.New(CompetitionStatus("drawing"))
	CompetitionDrawn     = enum.New(CompetitionStatus("drawn"))
	CompetitionCancelled = enum.New(CompetitionStatus("cancelled"))
	CompetitionFailed    = enum.New(CompetitionStatus("failed"))
)

type DrawMode string

var (
	DrawModeManual = enum.New(DrawMode("manual"))
	DrawModeAuto   = enum.New(DrawMode("auto"))
)

type Competition struct {
	Base

	Title       string
	Slug        string `gorm:"unique"`
	Description string

	MaxTickets  int
	TicketsSold int
	Price       float64

	DrawAt      time.Time
	DrawMode    DrawMode
	MustSellOut bool

	InstantWinsCount int

	Status CompetitionStatus `gorm:"index"`
}

func (c *Competition) TicketsRemaining() int {
	remaining := c.MaxTickets - c.TicketsSold
	if remaining < 0 {
		return 0
	}

	return remaining
}

// CanDraw reports whether the competition lifecycle permits running a draw.
func (c *Competition) CanDraw() bool {
	if c.Status != CompetitionLive && c.Status != CompetitionSoldOut {
		return false
	}

	if c.MustSellOut && c.TicketsRemaining() > 0 {
		return false
	}

	return true
}
