// internal/agent/client.go
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/engine/scan"
	"github.com/law-makers/screengrab/internal/reqctx"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog/log"
)

// Client sends messages to a page agent
type Client interface {
	Send(ctx context.Context, msg models.Message) (models.Response, error)
}

// ProgressPoller is implemented by clients that cannot receive pushed
// progress events and must poll for them instead
type ProgressPoller interface {
	Progress(ctx context.Context) (models.ProgressEvent, bool, error)
}

// LocalClient talks to an in-process Agent
type LocalClient struct {
	Agent *Agent
}

// Send dispatches msg to the agent
func (c LocalClient) Send(ctx context.Context, msg models.Message) (models.Response, error) {
	return c.Agent.Handle(ctx, msg), nil
}

// RemoteClient talks to an agent served over HTTP
type RemoteClient struct {
	baseURL string
	client  *http.Client
}

// NewRemoteClient creates a client for the agent listening at baseURL.
// The HTTP client has no timeout of its own: a scan can run for minutes and
// callers bound each call with its context instead.
func NewRemoteClient(baseURL string, client *http.Client) *RemoteClient {
	if client == nil {
		client = &http.Client{}
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &RemoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

var remoteRoutes = map[models.Action]struct {
	method string
	path   string
}{
	models.ActionPing:         {http.MethodGet, "/ping"},
	models.ActionGetMeta:      {http.MethodGet, "/meta"},
	models.ActionStartScrape:  {http.MethodPost, "/scrape"},
	models.ActionAbortScrape:  {http.MethodPost, "/abort"},
	models.ActionCheckStorage: {http.MethodGet, "/storage"},
}

// Send issues the HTTP request for msg. Transport failures and undecodable
// replies are reported as COMMUNICATION errors.
func (c *RemoteClient) Send(ctx context.Context, msg models.Message) (models.Response, error) {
	route, ok := remoteRoutes[msg.Action]
	if !ok {
		return models.Response{}, engine.NewEngineError(engine.ErrCodeValidation,
			fmt.Sprintf("unknown action %q", msg.Action), nil)
	}

	var resp models.Response
	if err := c.do(ctx, route.method, route.path, msg, &resp); err != nil {
		return models.Response{}, err
	}
	return resp, nil
}

// Progress returns the agent's most recent progress event
func (c *RemoteClient) Progress(ctx context.Context) (models.ProgressEvent, bool, error) {
	var ev models.ProgressEvent
	if err := c.do(ctx, http.MethodGet, "/progress", nil, &ev); err != nil {
		return ev, false, err
	}
	return ev, ev.Event != "", nil
}

func (c *RemoteClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil && method != http.MethodGet {
		data, err := json.Marshal(body)
		if err != nil {
			return engine.NewEngineError(engine.ErrCodeInternal, "failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return communicationError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := reqctx.GetRequestContext(ctx).RequestID; id != "unknown" {
		req.Header.Set("X-Request-ID", id)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return communicationError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return communicationError(fmt.Errorf("decode %s %s (HTTP %d): %w", method, path, res.StatusCode, err))
	}
	return nil
}

func communicationError(err error) error {
	return engine.NewEngineError(engine.ErrCodeCommunication, engine.MsgCommunication, err)
}

// RunScan drives one scan from the trigger side: it checks the agent is
// reachable, reads the metadata for display, then starts the scrape and
// waits for its single response. When timeout elapses first an abort is
// sent and a TIMEOUT error is returned; the agent then discards its
// partial results.
func RunScan(ctx context.Context, client Client, timeout time.Duration, notifier scan.Notifier) (models.ScreenCollectionMeta, models.Response, error) {
	var meta models.ScreenCollectionMeta
	logger := reqctx.Logger(ctx)

	if _, err := client.Send(ctx, models.Message{Action: models.ActionPing}); err != nil {
		return meta, models.Response{}, err
	}

	metaResp, err := client.Send(ctx, models.Message{Action: models.ActionGetMeta})
	if err != nil {
		return meta, models.Response{}, err
	}
	if metaResp.Status == models.StatusError {
		return meta, metaResp, responseError(metaResp)
	}
	if metaResp.ScreenCollectionMeta != nil {
		meta = *metaResp.ScreenCollectionMeta
	}
	logger.Info().Str("name", meta.Name).Str("logo", meta.LogoURL).Msg("Target detected")

	type result struct {
		resp models.Response
		err  error
	}
	done := make(chan result, 1)
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		resp, err := client.Send(scanCtx, models.Message{Action: models.ActionStartScrape})
		done <- result{resp, err}
	}()

	var ticks <-chan time.Time
	poller, canPoll := client.(ProgressPoller)
	if canPoll && notifier != nil {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		ticks = ticker.C
	}

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	lastCount := -1
	for {
		select {
		case r := <-done:
			if r.err != nil {
				return meta, r.resp, r.err
			}
			if r.resp.Status == models.StatusError {
				return meta, r.resp, responseError(r.resp)
			}
			return meta, r.resp, nil

		case <-ticks:
			ev, ok, err := poller.Progress(ctx)
			if err != nil || !ok || ev.Count == lastCount {
				continue
			}
			lastCount = ev.Count
			if err := notifier.Notify(ctx, ev); err != nil {
				log.Debug().Err(err).Msg("Progress notification dropped")
			}

		case <-timer:
			logger.Warn().Dur("timeout", timeout).Msg("Scan timed out, aborting")
			abortCtx, abortCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if _, err := client.Send(abortCtx, models.Message{Action: models.ActionAbortScrape}); err != nil {
				logger.Warn().Err(err).Msg("Failed to send abort")
			}
			abortCancel()
			return meta, models.Response{}, engine.NewEngineError(engine.ErrCodeTimeout,
				fmt.Sprintf("scan did not finish within %s", timeout), engine.ErrTimeout)

		case <-ctx.Done():
			abortCtx, abortCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			_, _ = client.Send(abortCtx, models.Message{Action: models.ActionAbortScrape})
			abortCancel()
			return meta, models.Response{Status: models.StatusAborted},
				engine.NewEngineError(engine.ErrCodeAborted, "scan aborted", ctx.Err())
		}
	}
}

// responseError converts an error response back into an EngineError
func responseError(resp models.Response) error {
	code := engine.ErrorCode(resp.Code)
	if code == "" {
		code = engine.ErrCodeInternal
	}
	return engine.NewEngineError(code, resp.Message, nil)
}
