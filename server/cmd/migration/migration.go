package migration

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/goto/changelogger/config"
	"github.com/goto/changelogger/internal/store/postgres"
	"github.com/goto/changelogger/server"
)

// NewMigrationCommand initializes command for database migrations
func NewMigrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migration",
		Short: "Command to do migration activity",
		Annotations: map[string]string{
			"group:other": "dev",
		},
	}
	cmd.AddCommand(
		newMigrateUpCommand(),
		newMigrateRollbackCommand(),
	)
	return cmd
}

type migrateCommand struct {
	configFilePath string
	count          int
}

func (m *migrateCommand) load() (*config.ServerConfig, error) {
	conf, err := config.LoadServerConfig(m.configFilePath)
	if err != nil {
		return nil, err
	}
	if err := conf.RequireDB(); err != nil {
		return nil, err
	}
	return conf, nil
}

func newMigrateUpCommand() *cobra.Command {
	up := &migrateCommand{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Example: heredoc.Doc(`
			$ changelogger migration up
			$ changelogger migration up -c config.yaml
		`),
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, err := up.load()
			if err != nil {
				return err
			}

			logger := server.NewLoggerFrom(conf.Log)
			logger.Info("Executing migration up")
			if err := postgres.Migrate(conf.Serve.DB.DSN); err != nil {
				return err
			}
			logger.Info("Migration up finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&up.configFilePath, "config", "c", config.EmptyPath, "File path for server configuration")
	return cmd
}

func newMigrateRollbackCommand() *cobra.Command {
	rollback := &migrateCommand{count: 1}

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Revert the latest migrations",
		Example: heredoc.Doc(`
			$ changelogger migration rollback
			$ changelogger migration rollback --count 2 -c config.yaml
		`),
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, err := rollback.load()
			if err != nil {
				return err
			}

			logger := server.NewLoggerFrom(conf.Log)
			logger.Info("Executing migration rollback", "count", rollback.count)
			if err := postgres.Rollback(conf.Serve.DB.DSN, rollback.count); err != nil {
				return err
			}
			logger.Info("Migration rollback finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&rollback.configFilePath, "config", "c", config.EmptyPath, "File path for server configuration")
	cmd.Flags().IntVar(&rollback.count, "count", rollback.count, "Number of migrations to revert")
	return cmd
}
