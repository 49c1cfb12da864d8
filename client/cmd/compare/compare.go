package compare

import (
	"context"
	"encoding/json"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/fatih/color"
	"github.com/goto/salt/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/goto/changelogger/client/cmd/internal/logger"
	"github.com/goto/changelogger/client/cmd/internal/progressbar"
	lerrors "github.com/goto/changelogger/client/local/errors"
	"github.com/goto/changelogger/config"
	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/core/changelog/service"
	"github.com/goto/changelogger/server"
)

type compareCommand struct {
	logger         log.Logger
	configFilePath string

	request service.CompareRequest
	path    string
	radius  int
	asJSON  bool
	noColor bool
}

// NewCompareCommand initializes command to compare two refs of a repository
func NewCompareCommand() *cobra.Command {
	c := &compareCommand{
		logger: logger.NewClientLogger(),
		radius: -1,
	}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two refs of a repository and generate a changelog",
		Long: heredoc.Doc(`
			Lists the files of both refs, diffs every file line by line and asks the
			configured generator for a changelog of the changed files. With --path only
			that file is compared and the changelog is generated from its diff.
		`),
		Example: heredoc.Doc(`
			$ changelogger compare --owner goto --repo salt --base v0.1.0 --head v0.2.0
			$ changelogger compare --owner goto --repo salt --base main --head feature --context 5
			$ changelogger compare --owner goto --repo salt --base v1 --head v2 --json
			$ changelogger compare --owner goto --repo salt --base v1 --head v2 --path log/logger.go
		`),
		RunE: c.RunE,
	}

	c.injectFlags(cmd)
	return cmd
}

func (c *compareCommand) injectFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.configFilePath, "config", "c", config.EmptyPath, "File path for configuration")

	cmd.Flags().StringVar(&c.request.Owner, "owner", "", "Repository owner or group")
	cmd.Flags().StringVar(&c.request.Repo, "repo", "", "Repository name")
	cmd.Flags().StringVar(&c.request.BaseRef, "base", "", "Base ref, older side of the comparison")
	cmd.Flags().StringVar(&c.request.HeadRef, "head", "", "Head ref, newer side of the comparison")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")
	cmd.MarkFlagRequired("base")
	cmd.MarkFlagRequired("head")

	cmd.Flags().StringVar(&c.path, "path", "", "Compare only this file")
	cmd.Flags().IntVar(&c.radius, "context", c.radius, "Unchanged lines shown around each change, defaults to compare.context_radius")
	cmd.Flags().BoolVar(&c.asJSON, "json", false, "Print the comparison result as json")
	cmd.Flags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")
}

func (c *compareCommand) RunE(cmd *cobra.Command, _ []string) error {
	if err := c.request.Validate(); err != nil {
		return lerrors.NewValidationErrorf("%s", err)
	}

	conf, err := config.LoadServerConfig(c.configFilePath)
	if err != nil {
		return err
	}
	c.logger = logger.NewClientLoggerWithLevel(conf.Log.Level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	host, err := server.NewGitHost(c.logger, conf.Git)
	if err != nil {
		return err
	}
	backend, err := server.NewTextGenerator(ctx, conf.Generator)
	if err != nil {
		return err
	}

	generator := service.NewChangelogGenerator(c.logger, backend)
	comparison := service.NewComparisonService(c.logger, host, generator, server.ComparisonConfigFrom(conf))

	spinner := progressbar.NewProgressBar()
	spinner.Start("comparing " + c.request.BaseRef + "..." + c.request.HeadRef)
	result, err := c.compare(ctx, comparison)
	spinner.Stop()
	if err != nil {
		return err
	}

	if c.asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	color.NoColor = c.noColor || !isatty.IsTerminal(os.Stdout.Fd())
	newRenderer(os.Stdout, c.contextRadius(conf)).Result(result)
	return nil
}

func (c *compareCommand) compare(ctx context.Context, comparison *service.ComparisonService) (*changelog.ComparisonResult, error) {
	if c.path != "" {
		return comparison.CompareFile(ctx, c.request, c.path)
	}
	return comparison.Compare(ctx, c.request)
}

func (c *compareCommand) contextRadius(conf *config.ServerConfig) int {
	if c.radius >= 0 {
		return c.radius
	}
	if conf.Compare.ContextRadius >= 0 {
		return conf.Compare.ContextRadius
	}
	return changelog.DefaultContextRadius
}
