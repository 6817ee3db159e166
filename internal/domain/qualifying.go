package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/crypto"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/compdraw/backend/pkg/xredis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QualifyingDomain interface {
	IssueQuestion(context.Context, *model.IssueQuestionRequest) (*model.IssueQuestionResponse, error)
	SubmitAnswer(context.Context, *model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error)
	GetStatus(context.Context, *model.GetQualifyingStatusRequest) (*model.GetQualifyingStatusResponse, error)
	CreateQuestion(context.Context, *model.CreateQuestionRequest) (*model.CreateQuestionResponse, error)

	// IsQualified reports whether the user passed the gate for the
	// competition. The order flow consults this before accepting payment.
	IsQualified(ctx context.Context, userID, competitionID string) (bool, error)
}

// questionBinding is the transient redis record tying an issued question to
// one (user, competition) pair so the answer can be validated against
// exactly that question and time window.
type questionBinding struct {
	QuestionID string    `json:"question_id"`
	IssuedAt   time.Time `json:"issued_at"`
}

type qualifyingDomain struct {
	questionRepo repository.QuestionRepository
	attemptRepo  repository.QuestionAttemptRepository
	redisClient  xredis.Client
}

func NewQualifyingDomain(
	questionRepo repository.QuestionRepository,
	attemptRepo repository.QuestionAttemptRepository,
	redisClient xredis.Client,
) *qualifyingDomain {
	return &qualifyingDomain{
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		redisClient:  redisClient,
	}
}

func bindingKey(userID, competitionID string) string {
	return fmt.Sprintf("qualifying:question:%s:%s", userID, competitionID)
}

func qualifiedKey(userID, competitionID string) string {
	return fmt.Sprintf("qualifying:qualified:%s:%s", userID, competitionID)
}

func (d *qualifyingDomain) IssueQuestion(
	ctx context.Context, req *model.IssueQuestionRequest,
) (*model.IssueQuestionResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Require authentication")
	}

	qualified, err := d.IsQualified(ctx, userID, req.CompetitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check qualified flag: %v", err)
		return nil, errorx.Unknown
	}

	if qualified {
		return &model.IssueQuestionResponse{Qualified: true}, nil
	}

	if remaining, err := d.cooldownRemaining(ctx, userID, req.CompetitionID); err != nil {
		return nil, err
	} else if remaining > 0 {
		return nil, errorx.New(errorx.Cooldown,
			"Too many incorrect answers, try again in %d seconds", int64(remaining.Seconds()))
	}

	questionID, err := d.pickQuestion(ctx, userID, req.CompetitionID)
	if err != nil {
		return nil, err
	}

	question, err := d.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get question: %v", err)
		return nil, errorx.Unknown
	}

	cfg := xcontext.Configs(ctx).Qualifying
	now := time.Now()
	binding := questionBinding{QuestionID: question.ID, IssuedAt: now}

	// The key outlives the validity window so a late answer is rejected by
	// the elapsed-time check rather than by silent eviction.
	err = d.redisClient.SetObj(ctx, bindingKey(userID, req.CompetitionID), binding,
		cfg.TimeLimit+cfg.GracePeriod+10*time.Second)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot bind question: %v", err)
		return nil, errorx.Unknown
	}

	return &model.IssueQuestionResponse{
		Question:  model.ConvertQuestion(question),
		ExpiresAt: now.Add(cfg.TimeLimit).Format(model.DefaultTimeLayout),
	}, nil
}

// pickQuestion prefers questions the user has not answered yet for this
// competition and falls back to the full active pool once it is exhausted.
func (d *qualifyingDomain) pickQuestion(
	ctx context.Context, userID, competitionID string,
) (string, error) {
	activeIDs, err := d.questionRepo.GetActiveIDs(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get active questions: %v", err)
		return "", errorx.Unknown
	}

	if len(activeIDs) == 0 {
		return "", errorx.New(errorx.Unavailable, "No qualifying questions are available")
	}

	answeredIDs, err := d.attemptRepo.GetAnsweredQuestionIDs(ctx, userID, competitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get answered questions: %v", err)
		return "", errorx.Unknown
	}

	answered := map[string]bool{}
	for _, id := range answeredIDs {
		answered[id] = true
	}

	unanswered := []string{}
	for _, id := range activeIDs {
		if !answered[id] {
			unanswered = append(unanswered, id)
		}
	}

	pool := unanswered
	if len(pool) == 0 {
		pool = activeIDs
	}

	return pool[crypto.RandIntn(len(pool))], nil
}

func (d *qualifyingDomain) SubmitAnswer(
	ctx context.Context, req *model.SubmitAnswerRequest,
) (*model.SubmitAnswerResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Require authentication")
	}

	if remaining, err := d.cooldownRemaining(ctx, userID, req.CompetitionID); err != nil {
		return nil, err
	} else if remaining > 0 {
		return nil, errorx.New(errorx.Cooldown,
			"Too many incorrect answers, try again in %d seconds", int64(remaining.Seconds()))
	}

	var binding questionBinding
	err := d.redisClient.GetObj(ctx, bindingKey(userID, req.CompetitionID), &binding)
	if err != nil {
		if errors.Is(err, xredis.ErrNotFound) {
			return nil, errorx.New(errorx.TimeExpired, "The question has expired, request a new one")
		}

		xcontext.Logger(ctx).Errorf("Cannot get question binding: %v", err)
		return nil, errorx.Unknown
	}

	if binding.QuestionID != req.QuestionID {
		return nil, errorx.New(errorx.BadRequest,
			"Submitted question does not match the issued question")
	}

	cfg := xcontext.Configs(ctx).Qualifying
	now := time.Now()
	if now.After(binding.IssuedAt.Add(cfg.TimeLimit + cfg.GracePeriod)) {
		return nil, errorx.New(errorx.TimeExpired, "The question has expired, request a new one")
	}

	question, err := d.questionRepo.GetByID(ctx, binding.QuestionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get question: %v", err)
		return nil, errorx.Unknown
	}

	correct := strings.EqualFold(strings.TrimSpace(req.Answer), question.CorrectOption)

	count, err := d.attemptRepo.CountByUserAndCompetition(ctx, userID, req.CompetitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count attempts: %v", err)
		return nil, errorx.Unknown
	}

	attempt := &entity.QuestionAttempt{
		Base:           entity.Base{ID: uuid.NewString()},
		UserID:         userID,
		CompetitionID:  req.CompetitionID,
		QuestionID:     question.ID,
		SelectedOption: strings.ToUpper(strings.TrimSpace(req.Answer)),
		IsCorrect:      correct,
		AttemptNumber:  int(count) + 1,
		AttemptedAt:    now,
	}

	if err := d.attemptRepo.Create(ctx, attempt); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record attempt: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.redisClient.Del(ctx, bindingKey(userID, req.CompetitionID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot clear question binding: %v", err)
	}

	if correct {
		// The flag is session-scoped, it lapses with the session instead of
		// qualifying the user forever.
		err := d.redisClient.SetTTL(ctx, qualifiedKey(userID, req.CompetitionID), "1",
			xcontext.Configs(ctx).Session.TTL)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot set qualified flag: %v", err)
			return nil, errorx.Unknown
		}

		d.saveSessionQualified(ctx, req.CompetitionID)

		return &model.SubmitAnswerResponse{
			Correct:           true,
			Qualified:         true,
			AttemptsRemaining: cfg.MaxAttempts,
		}, nil
	}

	incorrect, err := d.attemptRepo.CountIncorrectSince(
		ctx, userID, req.CompetitionID, now.Add(-cfg.Cooldown))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count incorrect attempts: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.SubmitAnswerResponse{
		AttemptsRemaining: cfg.MaxAttempts - int(incorrect),
	}

	if resp.AttemptsRemaining <= 0 {
		resp.AttemptsRemaining = 0
		resp.CooldownSeconds = int64(cfg.Cooldown.Seconds())
	}

	return resp, nil
}

func (d *qualifyingDomain) GetStatus(
	ctx context.Context, req *model.GetQualifyingStatusRequest,
) (*model.GetQualifyingStatusResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Require authentication")
	}

	qualified, err := d.IsQualified(ctx, userID, req.CompetitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check qualified flag: %v", err)
		return nil, errorx.Unknown
	}

	if qualified {
		cfg := xcontext.Configs(ctx).Qualifying
		return &model.GetQualifyingStatusResponse{
			Qualified:         true,
			AttemptsRemaining: cfg.MaxAttempts,
		}, nil
	}

	cfg := xcontext.Configs(ctx).Qualifying
	remaining, err := d.cooldownRemaining(ctx, userID, req.CompetitionID)
	if err != nil {
		return nil, err
	}

	incorrect, err := d.attemptRepo.CountIncorrectSince(
		ctx, userID, req.CompetitionID, time.Now().Add(-cfg.Cooldown))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count incorrect attempts: %v", err)
		return nil, errorx.Unknown
	}

	attemptsRemaining := cfg.MaxAttempts - int(incorrect)
	if attemptsRemaining < 0 {
		attemptsRemaining = 0
	}

	return &model.GetQualifyingStatusResponse{
		AttemptsRemaining: attemptsRemaining,
		CooldownSeconds:   int64(remaining.Seconds()),
	}, nil
}

func (d *qualifyingDomain) IsQualified(
	ctx context.Context, userID, competitionID string,
) (bool, error) {
	if d.sessionQualified(ctx, competitionID) {
		return true, nil
	}

	return d.redisClient.Exist(ctx, qualifiedKey(userID, competitionID))
}

func sessionQualifiedKey(competitionID string) string {
	return "qualified:" + competitionID
}

// saveSessionQualified records the qualified flag in the browser session.
// Clients without a cookie jar fall back to the redis flag, which carries
// the same lifetime.
func (d *qualifyingDomain) saveSessionQualified(ctx context.Context, competitionID string) {
	r := xcontext.HTTPRequest(ctx)
	w := xcontext.HTTPWriter(ctx)
	if r == nil || w == nil {
		return
	}

	session, err := xcontext.SessionStore(ctx).Get(r, xcontext.Configs(ctx).Session.Name)
	if err != nil {
		// An undecodable cookie yields a fresh session, still usable.
		xcontext.Logger(ctx).Debugf("Cannot decode session: %v", err)
	}

	session.Values[sessionQualifiedKey(competitionID)] = true
	if err := session.Save(r, w); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot save session: %v", err)
	}
}

func (d *qualifyingDomain) sessionQualified(ctx context.Context, competitionID string) bool {
	r := xcontext.HTTPRequest(ctx)
	if r == nil {
		return false
	}

	session, err := xcontext.SessionStore(ctx).Get(r, xcontext.Configs(ctx).Session.Name)
	if err != nil {
		return false
	}

	qualified, ok := session.Values[sessionQualifiedKey(competitionID)].(bool)
	return ok && qualified
}

// cooldownRemaining returns how long the user is still locked out. The
// lockout triggers when the limit of incorrect attempts falls inside one
// rolling window and lasts for the configured cooldown counted from the
// most recent incorrect attempt.
func (d *qualifyingDomain) cooldownRemaining(
	ctx context.Context, userID, competitionID string,
) (time.Duration, error) {
	cfg := xcontext.Configs(ctx).Qualifying

	latest, err := d.attemptRepo.GetNthRecentIncorrect(ctx, userID, competitionID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get incorrect attempts: %v", err)
		return 0, errorx.Unknown
	}

	oldest, err := d.attemptRepo.GetNthRecentIncorrect(
		ctx, userID, competitionID, cfg.MaxAttempts-1)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get incorrect attempts: %v", err)
		return 0, errorx.Unknown
	}

	if oldest.AttemptedAt.Before(latest.AttemptedAt.Add(-cfg.Cooldown)) {
		return 0, nil
	}

	remaining := time.Until(latest.AttemptedAt.Add(cfg.Cooldown))
	if remaining < 0 {
		return 0, nil
	}

	return remaining, nil
}

func (d *qualifyingDomain) CreateQuestion(
	ctx context.Context, req *model.CreateQuestionRequest,
) (*model.CreateQuestionResponse, error) {
	if req.Text == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty question")
	}

	correct := strings.ToUpper(strings.TrimSpace(req.CorrectOption))
	switch correct {
	case "A", "B", "C", "D":
	default:
		return nil, errorx.New(errorx.BadRequest, "The correct option must be one of A, B, C, D")
	}

	question := &entity.Question{
		Base:          entity.Base{ID: uuid.NewString()},
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: correct,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		Active:        true,
	}

	if err := d.questionRepo.Create(ctx, question); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create question: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateQuestionResponse{ID: question.ID}, nil
}
