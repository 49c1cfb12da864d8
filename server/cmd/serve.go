package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/goto/changelogger/config"
	"github.com/goto/changelogger/server"
)

type serveCommand struct {
	configFilePath string
}

// NewServeCommand runs the changelogger HTTP API until SIGINT or SIGTERM.
func NewServeCommand() *cobra.Command {
	serve := &serveCommand{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts changelogger service",
		Example: heredoc.Doc(`
			$ changelogger serve -c config.yaml
			$ CHANGELOGGER_SERVE_DB_DSN=postgres://localhost:5432/changelogger changelogger serve
		`),
		Annotations: map[string]string{
			"group:other": "dev",
		},
		RunE: serve.RunE,
	}
	cmd.Flags().StringVarP(&serve.configFilePath, "config", "c", config.EmptyPath, "File path for server configuration")
	return cmd
}

func (s *serveCommand) RunE(cmd *cobra.Command, _ []string) error {
	conf, err := config.LoadServerConfig(s.configFilePath)
	if err != nil {
		return err
	}

	changeloggerServer, err := server.New(conf)
	defer changeloggerServer.Shutdown()
	if err != nil {
		return fmt.Errorf("unable to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
