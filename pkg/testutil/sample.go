package testutil

import (
	"context"
	"reflect"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/repository"
	"github.com/google/uuid"
)

// SampleCompetition creates a competition with randomized fields. Non-zero
// fields of init overwrite the sample before it is persisted.
func SampleCompetition(ctx context.Context, init *entity.Competition) (entity.Competition, error) {
	competitionRepo := repository.NewCompetitionRepository()

	sample := &entity.Competition{
		Base:       entity.Base{ID: uuid.NewString()},
		Title:      uuid.NewString(),
		Slug:       uuid.NewString(),
		MaxTickets: 100,
		Price:      2.50,
		DrawAt:     time.Now().Add(24 * time.Hour),
		DrawMode:   entity.DrawModeManual,
		Status:     entity.CompetitionLive,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := competitionRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func SampleUser(ctx context.Context, init *entity.User) (entity.User, error) {
	userRepo := repository.NewUserRepository()

	sample := &entity.User{
		Base:  entity.Base{ID: uuid.NewString()},
		Name:  uuid.NewString(),
		Email: uuid.NewString() + "@example.com",
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := userRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func SampleQuestion(ctx context.Context, init *entity.Question) (entity.Question, error) {
	questionRepo := repository.NewQuestionRepository()

	sample := &entity.Question{
		Base:          entity.Base{ID: uuid.NewString()},
		Text:          uuid.NewString(),
		OptionA:       uuid.NewString(),
		OptionB:       uuid.NewString(),
		OptionC:       uuid.NewString(),
		OptionD:       uuid.NewString(),
		CorrectOption: "A",
		Active:        true,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := questionRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

// SampleTickets allocates the given numbers directly, bypassing the domain
// layer, for arranging draw scenarios.
func SampleTickets(
	ctx context.Context, competitionID, orderID, userID string, numbers ...int,
) ([]entity.Ticket, error) {
	ticketRepo := repository.NewTicketRepository()

	tickets := make([]*entity.Ticket, 0, len(numbers))
	for _, n := range numbers {
		tickets = append(tickets, &entity.Ticket{
			Base:          entity.Base{ID: uuid.NewString()},
			CompetitionID: competitionID,
			OrderID:       orderID,
			UserID:        userID,
			Number:        n,
			AllocatedAt:   time.Now(),
		})
	}

	if err := ticketRepo.CreateBatch(ctx, tickets); err != nil {
		return nil, err
	}

	result := make([]entity.Ticket, 0, len(tickets))
	for _, t := range tickets {
		result = append(result, *t)
	}
	return result, nil
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !overwriteField.IsZero() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
