package main

import (
	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadContext()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())

	if err := entity.MigrateTable(s.ctx); err != nil {
		return err
	}

	s.logger.Infof("Migration completed")
	return nil
}
