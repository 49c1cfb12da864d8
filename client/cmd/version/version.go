package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goto/salt/log"
	"github.com/goto/salt/version"
	"github.com/spf13/cobra"

	"github.com/goto/changelogger/client/cmd/internal/logger"
	"github.com/goto/changelogger/client/cmd/internal/progressbar"
	"github.com/goto/changelogger/config"
)

const versionTimeout = time.Second * 2

type versionCommand struct {
	logger log.Logger

	isWithServer bool
	host         string
}

// NewVersionCommand initializes command to get version
func NewVersionCommand() *cobra.Command {
	v := &versionCommand{
		logger: logger.NewClientLogger(),
	}

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the client version information",
		Example: "changelogger version [--with-server --host localhost:8080]",
		RunE:    v.RunE,
		PreRunE: v.PreRunE,
	}

	cmd.Flags().BoolVar(&v.isWithServer, "with-server", v.isWithServer, "Check for server version")
	cmd.Flags().StringVar(&v.host, "host", "", "Changelogger service endpoint url")
	return cmd
}

func (v *versionCommand) PreRunE(cmd *cobra.Command, _ []string) error {
	if v.isWithServer && v.host == "" {
		return fmt.Errorf("--host is required with --with-server")
	}
	return nil
}

func (v *versionCommand) RunE(_ *cobra.Command, _ []string) error {
	v.logger.Info(fmt.Sprintf("Client: %s-%s", config.BuildVersion, config.BuildCommit))

	if v.isWithServer {
		srvVer, err := v.getVersionRequest(config.BuildVersion, v.host)
		if err != nil {
			return err
		}
		v.logger.Info(fmt.Sprintf("Server: %s", srvVer))
	}

	githubRepo := "goto/changelogger"
	if updateNotice := version.UpdateNotice(config.BuildVersion, githubRepo); updateNotice != "" {
		v.logger.Info(updateNotice)
	}
	return nil
}

// getVersionRequest asks the server for its version
func (v *versionCommand) getVersionRequest(clientVer, host string) (string, error) {
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	spinner := progressbar.NewProgressBar()
	spinner.Start("please wait...")
	defer spinner.Stop()

	ctx, cancelFunc := context.WithTimeout(context.Background(), versionTimeout)
	defer cancelFunc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(host, "/")+"/api/version?client="+clientVer, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed for version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed for version: server returned %d", resp.StatusCode)
	}

	var versionResponse struct {
		Server string `json:"server"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&versionResponse); err != nil {
		return "", fmt.Errorf("unable to decode version response: %w", err)
	}
	return versionResponse.Server, nil
}
