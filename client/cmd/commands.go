package cmd

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/goto/changelogger/client/cmd/changelog"
	"github.com/goto/changelogger/client/cmd/compare"
	"github.com/goto/changelogger/client/cmd/version"
)

// New constructs the 'changelogger' command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelogger <command> <subcommand> [flags]",
		Short: "Generate and publish changelogs between two refs of a repository",
		Long: heredoc.Doc(`
			Changelogger compares two refs of a GitHub or GitLab repository file by file
			and writes a categorized changelog of the changes with a language model.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: heredoc.Doc(`
			$ changelogger compare --owner goto --repo salt --base v0.1.0 --head v0.2.0
			$ changelogger changelog list --host localhost:8080 --owner goto --repo salt
			$ changelogger serve -c config.yaml
		`),
		Annotations: map[string]string{
			"group:core": "true",
			"help:learn": heredoc.Doc(`
				Use 'changelogger <command> --help' for more information about a command.
				Configuration is read from ./config.yaml, a .env file and CHANGELOGGER_ environment variables.
			`),
		},
	}

	cmd.AddCommand(
		compare.NewCompareCommand(),
		changelog.NewChangelogCommand(),
		version.NewVersionCommand(),
	)
	return cmd
}
