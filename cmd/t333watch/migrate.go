package main

import (
	"github.com/spf13/cobra"

	"github.com/t333watch/t333watch/db"
	"github.com/t333watch/t333watch/pkg/pg"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := load[appConfig]("app")
			if err != nil {
				return err
			}
			pgCfg, err := load[pg.Config]("postgres")
			if err != nil {
				return err
			}
			log := newLogger(app.Env)

			ctx := cmd.Context()
			pool, err := pg.Connect(ctx, pgCfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			return pg.Migrate(ctx, pool, db.Migrations(), pgCfg, log)
		},
	}
}
