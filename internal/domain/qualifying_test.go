package domain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/testutil"
	"github.com/compdraw/backend/pkg/xcontext"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newQualifyingDomainForTest(redisClient *testutil.MockRedisClient) *qualifyingDomain {
	return NewQualifyingDomain(
		repository.NewQuestionRepository(),
		repository.NewQuestionAttemptRepository(),
		redisClient,
	)
}

func Test_qualifyingDomain_IssueAndAnswer(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	question, err := testutil.SampleQuestion(ctx, nil)
	require.NoError(t, err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	domain := newQualifyingDomainForTest(testutil.NewMockRedisClient())

	issued, err := domain.IssueQuestion(userCtx, &model.IssueQuestionRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)
	require.False(t, issued.Qualified)
	require.Equal(t, question.ID, issued.Question.ID)
	require.NotEmpty(t, issued.ExpiresAt)

	// Answers are matched case-insensitively with surrounding space ignored.
	answered, err := domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    question.ID,
		Answer:        " a ",
	})
	require.NoError(t, err)
	require.True(t, answered.Correct)
	require.True(t, answered.Qualified)

	qualified, err := domain.IsQualified(userCtx, user.ID, competition.ID)
	require.NoError(t, err)
	require.True(t, qualified)

	// Once qualified no further question is issued.
	issued, err = domain.IssueQuestion(userCtx, &model.IssueQuestionRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)
	require.True(t, issued.Qualified)
	require.Empty(t, issued.Question.ID)

	status, err := domain.GetStatus(userCtx, &model.GetQualifyingStatusRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)
	require.True(t, status.Qualified)
}

func Test_qualifyingDomain_SubmitAnswer_questionMismatch(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	question, err := testutil.SampleQuestion(ctx, nil)
	require.NoError(t, err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	domain := newQualifyingDomainForTest(testutil.NewMockRedisClient())

	_, err = domain.IssueQuestion(userCtx, &model.IssueQuestionRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)

	// An answer for a question that was never issued to this user is
	// rejected without consuming the binding.
	_, err = domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    uuid.NewString(),
		Answer:        "A",
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.BadRequest, errx.Code)

	answered, err := domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    question.ID,
		Answer:        "A",
	})
	require.NoError(t, err)
	require.True(t, answered.Correct)
}

func Test_qualifyingDomain_SubmitAnswer_expired(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	question, err := testutil.SampleQuestion(ctx, nil)
	require.NoError(t, err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	redisClient := testutil.NewMockRedisClient()
	domain := newQualifyingDomainForTest(redisClient)

	// No question was ever issued.
	_, err = domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    question.ID,
		Answer:        "A",
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.TimeExpired, errx.Code)

	// A binding issued beyond the limit plus grace is rejected even if the
	// redis key has not been evicted yet.
	stale := questionBinding{
		QuestionID: question.ID,
		IssuedAt:   time.Now().Add(-time.Minute),
	}
	err = redisClient.SetObj(ctx, bindingKey(user.ID, competition.ID), stale, time.Hour)
	require.NoError(t, err)

	_, err = domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    question.ID,
		Answer:        "A",
	})
	require.Error(t, err)
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.TimeExpired, errx.Code)
}

func Test_qualifyingDomain_cooldown(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	question, err := testutil.SampleQuestion(ctx, nil)
	require.NoError(t, err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	domain := newQualifyingDomainForTest(testutil.NewMockRedisClient())

	for i := 1; i <= 3; i++ {
		_, err = domain.IssueQuestion(userCtx, &model.IssueQuestionRequest{
			CompetitionID: competition.ID,
		})
		require.NoError(t, err)

		answered, err := domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
			CompetitionID: competition.ID,
			QuestionID:    question.ID,
			Answer:        "B",
		})
		require.NoError(t, err)
		require.False(t, answered.Correct)
		require.Equal(t, 3-i, answered.AttemptsRemaining)

		if i == 3 {
			require.Equal(t, int64(1800), answered.CooldownSeconds)
		} else {
			require.Zero(t, answered.CooldownSeconds)
		}
	}

	// Both the question and the answer endpoints are locked out now.
	_, err = domain.IssueQuestion(userCtx, &model.IssueQuestionRequest{
		CompetitionID: competition.ID,
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.Cooldown, errx.Code)

	_, err = domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    question.ID,
		Answer:        "A",
	})
	require.Error(t, err)
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.Cooldown, errx.Code)

	status, err := domain.GetStatus(userCtx, &model.GetQualifyingStatusRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)
	require.False(t, status.Qualified)
	require.Zero(t, status.AttemptsRemaining)
	require.Greater(t, status.CooldownSeconds, int64(0))
	require.LessOrEqual(t, status.CooldownSeconds, int64(1800))
}

func Test_qualifyingDomain_cooldownExpiry(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	question, err := testutil.SampleQuestion(ctx, nil)
	require.NoError(t, err)

	// Three incorrect attempts whose lockout window has already elapsed.
	attemptRepo := repository.NewQuestionAttemptRepository()
	for i := 0; i < 3; i++ {
		err = attemptRepo.Create(ctx, &entity.QuestionAttempt{
			Base:           entity.Base{ID: uuid.NewString()},
			UserID:         user.ID,
			CompetitionID:  competition.ID,
			QuestionID:     question.ID,
			SelectedOption: "B",
			AttemptNumber:  i + 1,
			AttemptedAt:    time.Now().Add(-31 * time.Minute).Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	domain := newQualifyingDomainForTest(testutil.NewMockRedisClient())

	issued, err := domain.IssueQuestion(userCtx, &model.IssueQuestionRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)
	require.Equal(t, question.ID, issued.Question.ID)
}

func Test_qualifyingDomain_qualifiedFlagLifetime(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	question, err := testutil.SampleQuestion(ctx, nil)
	require.NoError(t, err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	redisClient := testutil.NewMockRedisClient()
	domain := newQualifyingDomainForTest(redisClient)

	var gotTTL time.Duration
	redisClient.SetTTLFunc = func(fctx context.Context, key, value string, ttl time.Duration) error {
		gotTTL = ttl
		return redisClient.SetObj(fctx, key, value, ttl)
	}

	_, err = domain.IssueQuestion(userCtx, &model.IssueQuestionRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)

	answered, err := domain.SubmitAnswer(userCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    question.ID,
		Answer:        "A",
	})
	require.NoError(t, err)
	require.True(t, answered.Qualified)

	// The flag is written with the configured session lifetime, never
	// without one.
	require.Equal(t, xcontext.Configs(ctx).Session.TTL, gotTTL)

	qualified, err := domain.IsQualified(userCtx, user.ID, competition.ID)
	require.NoError(t, err)
	require.True(t, qualified)

	// Once the lifetime elapses the user has to requalify.
	redisClient.SetTTLFunc = nil
	other, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)

	err = redisClient.SetTTL(ctx, qualifiedKey(user.ID, other.ID), "1", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	qualified, err = domain.IsQualified(userCtx, user.ID, other.ID)
	require.NoError(t, err)
	require.False(t, qualified)
}

func Test_qualifyingDomain_sessionCarriesQualification(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	other, err := testutil.SampleCompetition(ctx, nil)
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	question, err := testutil.SampleQuestion(ctx, nil)
	require.NoError(t, err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	redisClient := testutil.NewMockRedisClient()
	domain := newQualifyingDomainForTest(redisClient)

	recorder := httptest.NewRecorder()
	answerCtx := xcontext.WithHTTPRequestWriter(userCtx,
		httptest.NewRequest(http.MethodPost, "/submitQualifyingAnswer", nil), recorder)

	_, err = domain.IssueQuestion(answerCtx, &model.IssueQuestionRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)

	answered, err := domain.SubmitAnswer(answerCtx, &model.SubmitAnswerRequest{
		CompetitionID: competition.ID,
		QuestionID:    question.ID,
		Answer:        "A",
	})
	require.NoError(t, err)
	require.True(t, answered.Qualified)

	// The response set a session cookie carrying the flag.
	var sessionCookie *http.Cookie
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == xcontext.Configs(ctx).Session.Name {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)

	// Even with the redis flag gone, a request presenting that cookie is
	// qualified for this competition and no other.
	require.NoError(t, redisClient.Del(ctx, qualifiedKey(user.ID, competition.ID)))

	next := httptest.NewRequest(http.MethodGet, "/getQualifyingStatus", nil)
	next.AddCookie(sessionCookie)
	nextCtx := xcontext.WithHTTPRequestWriter(userCtx, next, httptest.NewRecorder())

	qualified, err := domain.IsQualified(nextCtx, user.ID, competition.ID)
	require.NoError(t, err)
	require.True(t, qualified)

	qualified, err = domain.IsQualified(nextCtx, user.ID, other.ID)
	require.NoError(t, err)
	require.False(t, qualified)
}

func Test_qualifyingDomain_CreateQuestion(t *testing.T) {
	ctx := testutil.MockContext()
	domain := newQualifyingDomainForTest(testutil.NewMockRedisClient())

	_, err := domain.CreateQuestion(ctx, &model.CreateQuestionRequest{
		CorrectOption: "A",
	})
	require.Error(t, err)

	_, err = domain.CreateQuestion(ctx, &model.CreateQuestionRequest{
		Text:          "What colour is the sky?",
		CorrectOption: "E",
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.BadRequest, errx.Code)

	resp, err := domain.CreateQuestion(ctx, &model.CreateQuestionRequest{
		Text:          "What colour is the sky?",
		OptionA:       "Blue",
		OptionB:       "Green",
		OptionC:       "Red",
		OptionD:       "Yellow",
		CorrectOption: "b",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	questionRepo := repository.NewQuestionRepository()
	created, err := questionRepo.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.Equal(t, "B", created.CorrectOption)
	require.True(t, created.Active)
}
