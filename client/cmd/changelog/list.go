package changelog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/MakeNowJust/heredoc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/goto/changelogger/client/cmd/internal/progressbar"
	"github.com/goto/changelogger/core/changelog"
)

const dateLayout = "2006-01-02"

type listCommand struct {
	host  string
	owner string
	repo  string
	term  string

	withContent bool
}

// NewListCommand initializes command to list published changelogs of a repository
func NewListCommand() *cobra.Command {
	l := &listCommand{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published changelogs of a repository, newest first",
		Example: heredoc.Doc(`
			$ changelogger changelog list --host localhost:8080 --owner goto --repo salt
			$ changelogger changelog list --host localhost:8080 --owner goto --repo salt -q security --content
		`),
		RunE: l.RunE,
	}

	cmd.Flags().StringVar(&l.host, "host", "", "Changelogger service endpoint url")
	cmd.Flags().StringVar(&l.owner, "owner", "", "Repository owner or group")
	cmd.Flags().StringVar(&l.repo, "repo", "", "Repository name")
	cmd.Flags().StringVarP(&l.term, "query", "q", "", "Only entries whose content or version contains the term")
	cmd.Flags().BoolVar(&l.withContent, "content", false, "Print the content of every entry")
	cmd.MarkFlagRequired("host")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")
	return cmd
}

func (l *listCommand) RunE(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	spinner := progressbar.NewProgressBar()
	spinner.Start("please wait...")
	entries, err := newAPIClient(l.host).list(ctx, l.owner, l.repo, l.term)
	spinner.Stop()
	if err != nil {
		return err
	}

	printEntries(os.Stdout, entries, l.withContent)
	return nil
}

func printEntries(w io.Writer, entries []*changelog.Entry, withContent bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no published changelog found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetHeader([]string{
		"Version",
		"Date",
		"Changes",
	})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, entry := range entries {
		table.Append([]string{
			entry.Version,
			entry.Date.Format(dateLayout),
			strconv.Itoa(len(entry.Changes)),
		})
	}
	table.Render()

	if !withContent {
		return
	}
	for _, entry := range entries {
		fmt.Fprintf(w, "\n## %s (%s)\n\n%s\n", entry.Version, entry.Date.Format(dateLayout), entry.Content)
	}
}
