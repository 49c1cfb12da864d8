package changelog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/log"
	"github.com/spf13/cobra"

	"github.com/goto/changelogger/client/cmd/internal/logger"
	lerrors "github.com/goto/changelogger/client/local/errors"
	"github.com/goto/changelogger/core/changelog"
)

type publishCommand struct {
	logger log.Logger

	host        string
	entry       changelog.Entry
	contentPath string
	date        string
	draft       bool
}

// NewPublishCommand initializes command to store a changelog entry from a markdown file
func NewPublishCommand() *cobra.Command {
	p := &publishCommand{
		logger: logger.NewClientLogger(),
	}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Store a changelog entry, replacing the entry of the same version",
		Example: heredoc.Doc(`
			$ changelogger changelog publish --host localhost:8080 --owner goto --repo salt --version v0.2.0 --file CHANGELOG.md
			$ changelogger changelog publish --host localhost:8080 --owner goto --repo salt --version v0.3.0 --file notes.md --draft
		`),
		RunE: p.RunE,
	}

	cmd.Flags().StringVar(&p.host, "host", "", "Changelogger service endpoint url")
	cmd.Flags().StringVar(&p.entry.Owner, "owner", "", "Repository owner or group")
	cmd.Flags().StringVar(&p.entry.Repo, "repo", "", "Repository name")
	cmd.Flags().StringVar(&p.entry.Version, "version", "", "Version the changelog describes")
	cmd.Flags().StringVarP(&p.contentPath, "file", "f", "", "Markdown file with the changelog content")
	cmd.Flags().StringVar(&p.date, "date", "", "Release date as YYYY-MM-DD, defaults to today")
	cmd.Flags().BoolVar(&p.draft, "draft", false, "Store without publishing")
	cmd.MarkFlagRequired("host")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")
	cmd.MarkFlagRequired("version")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (p *publishCommand) RunE(cmd *cobra.Command, _ []string) error {
	content, err := os.ReadFile(p.contentPath)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", p.contentPath, err)
	}
	p.entry.Content = string(content)
	p.entry.IsPublished = !p.draft

	if p.date != "" {
		date, err := time.Parse(dateLayout, p.date)
		if err != nil {
			return lerrors.NewValidationErrorf("invalid date %q, expected YYYY-MM-DD", p.date)
		}
		p.entry.Date = date
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := newAPIClient(p.host).publish(ctx, &p.entry); err != nil {
		return err
	}
	p.logger.Info(fmt.Sprintf("changelog %s of %s/%s stored", p.entry.Version, p.entry.Owner, p.entry.Repo))
	return nil
}
