package changelog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	lerrors "github.com/goto/changelogger/client/local/errors"
	"github.com/goto/changelogger/core/changelog"
)

const requestTimeout = 30 * time.Second

// NewChangelogCommand initializes command for published changelogs
func NewChangelogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Interact with changelogs stored in changelogger server",
	}
	cmd.AddCommand(
		NewListCommand(),
		NewPublishCommand(),
	)
	return cmd
}

type apiClient struct {
	host       string
	httpClient *http.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

func newAPIClient(host string) *apiClient {
	host = strings.TrimSuffix(host, "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return &apiClient{
		host:       host,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *apiClient) list(ctx context.Context, owner, repo, term string) ([]*changelog.Entry, error) {
	endpoint := fmt.Sprintf("%s/api/changelog/%s/%s", c.host, url.PathEscape(owner), url.PathEscape(repo))
	if term != "" {
		endpoint += "?q=" + url.QueryEscape(term)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var entries []*changelog.Entry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *apiClient) publish(ctx context.Context, entry *changelog.Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/changelog", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return lerrors.NewRemoteErrorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return lerrors.NewRemoteErrorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
