package main

import (
	"fmt"
	"net/http"

	"github.com/compdraw/backend/internal/middleware"
	"github.com/compdraw/backend/pkg/router"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadContext()
	s.loadRedisClient()
	s.loadRepos()
	s.loadDomains()

	db := s.newDatabase()

	r := router.New(db, s.configs, s.logger)
	r.AddCloser(middleware.Logger())

	// Public API
	publicRouter := r.Branch()
	publicRouter.Before(middleware.WithAuthentication())
	{
		router.GET(publicRouter, "/getCompetition", s.competitionDomain.Get)
		router.GET(publicRouter, "/getListCompetition", s.competitionDomain.GetList)
		router.GET(publicRouter, "/getTicketsRemaining", s.competitionDomain.GetTicketsRemaining)
		router.GET(publicRouter, "/getWinners", s.ticketDomain.GetWinners)
		router.GET(publicRouter, "/getLatestDraw", s.drawDomain.GetLatest)
		router.GET(publicRouter, "/getDrawHistory", s.drawDomain.GetHistory)
		router.GET(publicRouter, "/getCompetitionInstantWins", s.instantWinDomain.GetCompetitionWins)
	}

	// User API
	userRouter := r.Branch()
	userRouter.Before(middleware.WithAuthentication())
	userRouter.Before(middleware.MustAuthenticate())
	{
		router.GET(userRouter, "/getMyTickets", s.ticketDomain.GetMyTickets)
		router.GET(userRouter, "/getMyInstantWins", s.instantWinDomain.GetMyWins)
		router.GET(userRouter, "/getQualifyingStatus", s.qualifyingDomain.GetStatus)
		router.POST(userRouter, "/getQualifyingQuestion", s.qualifyingDomain.IssueQuestion)
		router.POST(userRouter, "/submitQualifyingAnswer", s.qualifyingDomain.SubmitAnswer)
		router.POST(userRouter, "/confirmOrder", s.orderDomain.Confirm)
	}

	// Admin API
	adminRouter := r.Branch()
	adminRouter.Before(middleware.WithAuthentication())
	adminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		router.POST(adminRouter, "/createCompetition", s.competitionDomain.Create)
		router.POST(adminRouter, "/setCompetitionStatus", s.competitionDomain.SetStatus)
		router.POST(adminRouter, "/allocateTickets", s.ticketDomain.Allocate)
		router.POST(adminRouter, "/executeDraw", s.drawDomain.Execute)
		router.POST(adminRouter, "/forceRedraw", s.drawDomain.ForceRedraw)
		router.POST(adminRouter, "/generateInstantWins", s.instantWinDomain.Generate)
		router.POST(adminRouter, "/createQuestion", s.qualifyingDomain.CreateQuestion)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.configs.ApiServer.Port),
		Handler: r.Handler(),
	}

	s.logger.Infof("Starting api server on port %s", s.configs.ApiServer.Port)
	if err := httpServer.ListenAndServe(); err != nil {
		return err
	}

	return nil
}
