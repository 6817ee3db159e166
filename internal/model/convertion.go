package model

import (
	"time"

	"github.com/compdraw/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func ConvertCompetition(competition *entity.Competition) Competition {
	if competition == nil {
		return Competition{}
	}

	return Competition{
		ID:               competition.ID,
		Title:            competition.Title,
		Slug:             competition.Slug,
		Description:      competition.Description,
		MaxTickets:       competition.MaxTickets,
		TicketsSold:      competition.TicketsSold,
		TicketsRemaining: competition.TicketsRemaining(),
		Price:            competition.Price,
		DrawAt:           competition.DrawAt.Format(DefaultTimeLayout),
		DrawMode:         string(competition.DrawMode),
		MustSellOut:      competition.MustSellOut,
		InstantWinsCount: competition.InstantWinsCount,
		Status:           string(competition.Status),
		CreatedAt:        competition.CreatedAt.Format(DefaultTimeLayout),
		UpdatedAt:        competition.UpdatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertTicket(ticket *entity.Ticket) Ticket {
	if ticket == nil {
		return Ticket{}
	}

	return Ticket{
		ID:            ticket.ID,
		CompetitionID: ticket.CompetitionID,
		Number:        ticket.Number,
		OrderID:       ticket.OrderID,
		UserID:        ticket.UserID,
		IsWinner:      ticket.IsWinner,
		IsInstantWin:  ticket.IsInstantWin,
		AllocatedAt:   ticket.AllocatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertRolls(entityRolls []entity.Roll) []Roll {
	modelRolls := []Roll{}
	for _, r := range entityRolls {
		modelRolls = append(modelRolls, Roll{
			RollNumber: r.RollNumber,
			Ticket:     r.Ticket,
			IsSold:     r.IsSold,
			Result:     string(r.Result),
			Message:    r.Message,
			Timestamp:  r.Timestamp.Format(DefaultTimeLayout),
		})
	}
	return modelRolls
}

// ConvertDraw never includes the seed. Only the hash commitment is public.
func ConvertDraw(draw *entity.Draw, winner *entity.Ticket) Draw {
	if draw == nil {
		return Draw{}
	}

	result := Draw{
		ID:                 draw.ID,
		CompetitionID:      draw.CompetitionID,
		DrawMode:           string(draw.DrawMode),
		SeedHash:           draw.SeedHash,
		Rolls:              ConvertRolls(draw.Rolls),
		Status:             string(draw.Status),
		ForcedRedraw:       draw.ForcedRedraw,
		ForcedRedrawReason: draw.ForcedRedrawReason,
		StartedAt:          draw.StartedAt.Format(DefaultTimeLayout),
	}

	if draw.CompletedAt.Valid {
		result.CompletedAt = draw.CompletedAt.Time.Format(DefaultTimeLayout)
	}

	if winner != nil {
		result.WinningTicket = winner.Number
		result.WinnerUserID = winner.UserID
	}

	return result
}

func ConvertQuestion(question *entity.Question) Question {
	if question == nil {
		return Question{}
	}

	return Question{
		ID:      question.ID,
		Text:    question.Text,
		OptionA: question.OptionA,
		OptionB: question.OptionB,
		OptionC: question.OptionC,
		OptionD: question.OptionD,
	}
}
