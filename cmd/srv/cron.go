package main

import (
	"github.com/compdraw/backend/internal/domain/cron"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadContext()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.loadRedisClient()
	s.loadRepos()
	s.loadDomains()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewAutoDrawCronJob(s.drawDomain, s.competitionRepo))
	cronJobManager.Register(cron.NewDrawRetryCronJob(s.drawDomain, s.drawRetryRepo))
	cronJobManager.Start(s.ctx)

	return nil
}
