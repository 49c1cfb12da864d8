package main

import (
	"errors"
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	clientCmd "github.com/goto/changelogger/client/cmd"
	lerrors "github.com/goto/changelogger/client/local/errors"
	server "github.com/goto/changelogger/server/cmd"
	"github.com/goto/changelogger/server/cmd/migration"
)

const DefaultExitCode = 1

var errRequestFail = errors.New("🔥 unable to complete request successfully")

//nolint:forbidigo
func main() {
	command := clientCmd.New()

	// Add Server related commands
	command.AddCommand(
		server.NewServeCommand(),
		migration.NewMigrationCommand(),
	)

	if err := command.Execute(); err != nil {
		fmt.Println(err)
		fmt.Println(errRequestFail)
		Exit(err)
	}
}

func Exit(err error) {
	var cmdErr *lerrors.CmdError
	if errors.As(err, &cmdErr) {
		os.Exit(cmdErr.Code)
		return
	}
	os.Exit(DefaultExitCode)
}
