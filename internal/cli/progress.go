// internal/cli/progress.go
package cli

import (
	"context"
	"os"
	"sync"

	"github.com/law-makers/screengrab/internal/engine/scan"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// isTerminal reports whether stderr is attached to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// scanProgress renders scan progress events as a spinner with a running
// count, or as log lines when stderr is not a terminal
type scanProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newScanProgress() *scanProgress {
	p := &scanProgress{}
	if isTerminal() {
		p.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Capturing screens"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p
}

var _ scan.Notifier = (*scanProgress)(nil)

func (p *scanProgress) Notify(ctx context.Context, ev models.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		log.Info().Int("count", ev.Count).Msg(ev.Text)
		return nil
	}
	return p.bar.Set(ev.Count)
}

func (p *scanProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// newDownloadBar returns a bar for total downloads, or nil off-terminal
func newDownloadBar(total int) *progressbar.ProgressBar {
	if !isTerminal() {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
