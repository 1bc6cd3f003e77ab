// internal/agent/agent.go
package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/engine/metadata"
	"github.com/law-makers/screengrab/internal/engine/scan"
	"github.com/law-makers/screengrab/internal/reqctx"
	"github.com/law-makers/screengrab/internal/store"
	"github.com/law-makers/screengrab/pkg/models"
)

// State is the scan lifecycle of an Agent
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options wires an Agent to its page and dependencies
type Options struct {
	Page      engine.Page
	Store     *store.Store
	Extractor *metadata.Extractor
	Scan      scan.Config
	Notifier  scan.Notifier
}

// Agent performs scans on one page. At most one scan runs at a time; the
// state is only changed by the agent's own operations.
type Agent struct {
	page      engine.Page
	store     *store.Store
	extractor *metadata.Extractor
	collector *scan.Collector
	notifier  scan.Notifier

	mu       sync.Mutex
	state    State
	progress *models.ProgressEvent
}

// New creates an idle Agent
func New(opts Options) *Agent {
	a := &Agent{
		page:      opts.Page,
		store:     opts.Store,
		extractor: opts.Extractor,
		notifier:  opts.Notifier,
	}
	a.collector = scan.NewCollector(opts.Scan, scan.NotifierFunc(a.notify))
	return a
}

// State returns the current state
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastProgress returns the most recent progress event of the current or last scan
func (a *Agent) LastProgress() (models.ProgressEvent, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.progress == nil {
		return models.ProgressEvent{}, false
	}
	return *a.progress, true
}

// Handle dispatches a message to the matching operation
func (a *Agent) Handle(ctx context.Context, msg models.Message) models.Response {
	switch msg.Action {
	case models.ActionPing:
		return a.Ping(ctx)
	case models.ActionGetMeta:
		return a.GetMeta(ctx)
	case models.ActionStartScrape:
		return a.StartScrape(ctx)
	case models.ActionAbortScrape:
		return a.AbortScrape(ctx)
	case models.ActionCheckStorage:
		return a.CheckStorage(ctx)
	default:
		return errorResponse(engine.NewEngineError(engine.ErrCodeValidation,
			fmt.Sprintf("unknown action %q", msg.Action), nil))
	}
}

// Ping reports that the agent is alive
func (a *Agent) Ping(ctx context.Context) models.Response {
	return models.Response{Status: models.StatusOK}
}

// GetMeta extracts name, logo and source URL from the page as it is now
func (a *Agent) GetMeta(ctx context.Context) models.Response {
	meta, err := a.extractor.Extract(ctx, a.page)
	if err != nil {
		return errorResponse(err)
	}
	return models.Response{ScreenCollectionMeta: &meta}
}

// CheckStorage reports store usage against the quota
func (a *Agent) CheckStorage(ctx context.Context) models.Response {
	usage, err := a.store.Usage(ctx)
	if err != nil {
		return errorResponse(err)
	}
	return models.Response{StorageUsage: &usage}
}

// AbortScrape asks a running scan to stop at its next iteration
func (a *Agent) AbortScrape(ctx context.Context) models.Response {
	a.mu.Lock()
	prev := a.state
	if a.state == StateRunning {
		a.state = StateCancelling
	}
	a.mu.Unlock()

	reqctx.Logger(ctx).Info().Str("state", prev.String()).Msg("Abort requested")
	return models.Response{Status: models.StatusAborted}
}

// StartScrape runs a full scan: metadata first, then the scroll loop, then
// the store upsert. A second start while a scan is active is rejected.
func (a *Agent) StartScrape(ctx context.Context) (resp models.Response) {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return errorResponse(engine.NewEngineError(engine.ErrCodeBusy, engine.ErrBusy.Error(), engine.ErrBusy))
	}
	a.state = StateRunning
	a.progress = nil
	a.mu.Unlock()

	if reqctx.GetRequestContext(ctx).RequestID == "unknown" {
		ctx = reqctx.WithRequestContext(ctx)
	}
	logger := reqctx.Logger(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Scan panicked")
			resp = errorResponse(engine.NewEngineError(engine.ErrCodeInternal, fmt.Sprintf("scan failed: %v", r), nil))
		}
		a.mu.Lock()
		a.state = StateIdle
		a.mu.Unlock()
	}()

	logger.Info().Str("url", a.page.URL()).Msg("Scan started")

	meta, err := a.extractor.Extract(ctx, a.page)
	if err != nil {
		logger.Warn().Err(err).Msg("Metadata extraction failed")
		return errorResponse(err)
	}

	screens, err := a.collector.Collect(ctx, a.page, a.cancelled)
	if err != nil {
		if engine.HasCode(err, engine.ErrCodeAborted) {
			logger.Info().Msg("Scan aborted, nothing saved")
			return models.Response{Status: models.StatusAborted}
		}
		logger.Warn().Err(err).Msg("Scan failed")
		return errorResponse(reqctx.NewRequestError(ctx, err))
	}

	if a.cancelled() {
		logger.Info().Int("captured", len(screens)).Msg("Scan aborted before save, nothing saved")
		return models.Response{Status: models.StatusAborted}
	}

	result, err := a.store.Save(ctx, meta, screens)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to save collection")
		return errorResponse(reqctx.NewRequestError(ctx, err))
	}

	logger.Info().
		Str("id", result.ID).
		Int("count", result.Count).
		Bool("update", result.IsUpdate).
		Dur("elapsed", reqctx.GetRequestContext(ctx).Elapsed()).
		Msg("Scan completed")

	return models.Response{
		Status:   models.StatusSuccess,
		Count:    result.Count,
		AppName:  result.AppName,
		IsUpdate: result.IsUpdate,
	}
}

func (a *Agent) cancelled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateCancelling
}

// notify records the event for polling clients, then forwards it
func (a *Agent) notify(ctx context.Context, ev models.ProgressEvent) error {
	a.mu.Lock()
	a.progress = &ev
	a.mu.Unlock()

	if a.notifier == nil {
		return nil
	}
	return a.notifier.Notify(ctx, ev)
}

func errorResponse(err error) models.Response {
	code := engine.CodeOf(err)
	if code == "" {
		code = engine.ErrCodeInternal
	}
	return models.Response{
		Status:  models.StatusError,
		Message: engine.MessageOf(err),
		Code:    string(code),
	}
}
