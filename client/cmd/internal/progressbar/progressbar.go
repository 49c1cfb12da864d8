package progressbar

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

const refreshRate = 120 * time.Millisecond

type ProgressBar struct {
	spinner *spinner.Spinner
	enabled bool
}

// NewProgressBar creates a spinner on stderr. It stays silent when stderr is not a terminal.
func NewProgressBar() *ProgressBar {
	return &ProgressBar{
		spinner: spinner.New(spinner.CharSets[11], refreshRate, spinner.WithWriter(os.Stderr)),
		enabled: isatty.IsTerminal(os.Stderr.Fd()),
	}
}

func (p *ProgressBar) Start(message string) {
	if !p.enabled {
		return
	}
	p.spinner.Suffix = " " + message
	p.spinner.Start()
}

func (p *ProgressBar) Stop() {
	if !p.enabled {
		return
	}
	p.spinner.Stop()
}
