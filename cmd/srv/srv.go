package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/compdraw/backend/config"
	"github.com/compdraw/backend/internal/domain"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/logger"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/compdraw/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App

	ctx context.Context

	configs config.Configs
	logger  logger.Logger

	redisClient xredis.Client

	userRepo        repository.UserRepository
	competitionRepo repository.CompetitionRepository
	ticketRepo      repository.TicketRepository
	drawRepo        repository.DrawRepository
	drawRetryRepo   repository.DrawRetryRepository
	instantWinRepo  repository.InstantWinRepository
	couponRepo      repository.CouponRepository
	payoutRepo      repository.PrizePayoutRepository
	questionRepo    repository.QuestionRepository
	attemptRepo     repository.QuestionAttemptRepository

	competitionDomain domain.CompetitionDomain
	ticketDomain      domain.TicketDomain
	drawDomain        domain.DrawDomain
	instantWinDomain  domain.InstantWinDomain
	qualifyingDomain  domain.QualifyingDomain
	orderDomain       domain.OrderDomain
}

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "compdraw"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start the api service",
			Category:    "Api",
			Description: `Serves the competition, ticket, draw, instant-win and qualifying apis.`,
		},
		{
			Action:      server.startCron,
			Name:        "cron",
			Usage:       "Start the cron worker",
			Category:    "Worker",
			Description: `Runs scheduled automatic draws and failed-draw retries.`,
		},
		{
			Action:      server.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate database tables",
			Category:    "Database",
			Description: `Creates or updates all tables of the current schema.`,
		},
	}

	s.app = app
}

func (s *srv) loadConfig() {
	s.configs = config.Configs{
		Env: getEnv("ENV", "local"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			User:     getEnv("MYSQL_USER", "compdraw"),
			Password: getEnv("MYSQL_PASSWORD", "compdraw"),
			Database: getEnv("MYSQL_DATABASE", "compdraw"),
		},
		ApiServer: config.ServerConfigs{
			Host: getEnv("API_HOST", "localhost"),
			Port: getEnv("API_PORT", "8080"),
			Cert: getEnv("API_CERT", ""),
			Key:  getEnv("API_KEY", ""),
		},
		Auth: config.AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "token-secret"),
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: getEnvDuration("ACCESS_TOKEN_DURATION", time.Hour),
			},
		},
		Session: config.SessionConfigs{
			Secret: getEnv("SESSION_SECRET", "session-secret"),
			Name:   "session",
			TTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Draw: config.DrawConfigs{
			RetryDelay: getEnvDuration("DRAW_RETRY_DELAY", 2*time.Minute),
		},
		Qualifying: config.QualifyingConfigs{
			MaxAttempts: getEnvInt("QUALIFYING_MAX_ATTEMPTS", 3),
			Cooldown:    getEnvDuration("QUALIFYING_COOLDOWN", 30*time.Minute),
			TimeLimit:   getEnvDuration("QUALIFYING_TIME_LIMIT", 30*time.Second),
			GracePeriod: getEnvDuration("QUALIFYING_GRACE_PERIOD", 5*time.Second),
		},
	}
}

func (s *srv) loadLogger() {
	level := logger.INFO
	if s.configs.Env == "local" {
		level = logger.DEBUG
	}

	s.logger = logger.NewLogger(level)
}

func (s *srv) loadContext() {
	s.ctx = context.Background()
	s.ctx = xcontext.WithConfigs(s.ctx, s.configs)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	db, err := gorm.Open(mysql.Open(s.configs.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.competitionRepo = repository.NewCompetitionRepository()
	s.ticketRepo = repository.NewTicketRepository()
	s.drawRepo = repository.NewDrawRepository()
	s.drawRetryRepo = repository.NewDrawRetryRepository()
	s.instantWinRepo = repository.NewInstantWinRepository()
	s.couponRepo = repository.NewCouponRepository()
	s.payoutRepo = repository.NewPrizePayoutRepository()
	s.questionRepo = repository.NewQuestionRepository()
	s.attemptRepo = repository.NewQuestionAttemptRepository()
}

func (s *srv) loadDomains() {
	s.competitionDomain = domain.NewCompetitionDomain(s.competitionRepo)
	s.ticketDomain = domain.NewTicketDomain(s.ticketRepo, s.competitionRepo)
	s.drawDomain = domain.NewDrawDomain(s.drawRepo, s.drawRetryRepo, s.ticketRepo, s.competitionRepo)
	s.instantWinDomain = domain.NewInstantWinDomain(
		s.instantWinRepo, s.ticketRepo, s.competitionRepo, s.userRepo, s.couponRepo, s.payoutRepo)
	s.qualifyingDomain = domain.NewQualifyingDomain(s.questionRepo, s.attemptRepo, s.redisClient)
	s.orderDomain = domain.NewOrderDomain(
		s.ticketDomain, s.instantWinDomain, s.qualifyingDomain, s.ticketRepo, s.competitionRepo)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}

	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}

	return d
}
