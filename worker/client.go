// Package worker talks to the external stt_backend process. Every call
// spawns a fresh process, and only the last non-empty stdout line is read
// back as a JSON object.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"whisperclip/config"
	"whisperclip/log"
)

// TranscriptionResult is produced once per successful stop call.
type TranscriptionResult struct {
	Text            string
	LatencyMS       int
	ModelDownloaded bool
	Refined         bool
	WorkflowMode    config.WorkflowMode
}

type StartRequest struct {
	Model    string
	Language string
}

type StopRequest struct {
	Model         string
	Language      string
	RefineEnabled bool
	WorkflowMode  config.WorkflowMode
	Provider      config.ProviderID
	// Credentials are sent only for providers that need them.
	Credentials *config.Credentials
}

// ProviderState is the reply to a provider status or login call.
type ProviderState struct {
	Installed     bool
	Authenticated bool
	Message       string
}

type Options struct {
	// StateDir correlates the start and stop calls of one session.
	StateDir string
	// Timeout bounds each call. Zero waits indefinitely.
	Timeout time.Duration
	// Stderr receives the worker's diagnostic stream as it is produced.
	Stderr io.Writer
}

type Client struct {
	stateDir string
	timeout  atomic.Int64
	runner   processRunner
	resolve  func() Location
	sessions sessionLocks
}

func New(opts Options) *Client {
	c := &Client{
		stateDir: opts.StateDir,
		runner:   &execRunner{stderr: opts.Stderr},
		resolve:  Resolve,
	}
	c.SetTimeout(opts.Timeout)
	return c
}

func (c *Client) StateDir() string { return c.stateDir }

func (c *Client) SetTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.timeout.Store(int64(d))
}

func (c *Client) StartRecording(ctx context.Context, req StartRequest) error {
	unlock := c.sessions.lock(c.stateDir)
	defer unlock()

	p, err := c.call(ctx,
		"record", "--start",
		"--state-dir", c.stateDir,
		"--model", req.Model,
		"--language", req.Language,
	)
	if err != nil {
		return err
	}
	return p.failure("record start failed")
}

func (c *Client) StopRecording(ctx context.Context, req StopRequest) (TranscriptionResult, error) {
	unlock := c.sessions.lock(c.stateDir)
	defer unlock()

	args := []string{
		"record", "--stop",
		"--state-dir", c.stateDir,
		"--model", req.Model,
		"--language", req.Language,
		"--smart-mode", string(req.WorkflowMode),
		"--smart-refine-enabled", strconv.FormatBool(req.RefineEnabled),
		"--llm-provider", string(req.Provider),
	}
	if req.Credentials != nil {
		args = append(args,
			"--openai-api-key", req.Credentials.APIKey,
			"--openai-model", req.Credentials.Model,
		)
	}

	p, err := c.call(ctx, args...)
	if err != nil {
		return TranscriptionResult{}, err
	}
	if err := p.failure("record stop failed"); err != nil {
		return TranscriptionResult{}, err
	}
	return TranscriptionResult{
		Text:            p.str("text"),
		LatencyMS:       max(p.integer("latency_ms"), 0),
		ModelDownloaded: p.boolean("model_downloaded"),
		Refined:         p.boolean("refined"),
		WorkflowMode:    config.ParseWorkflowMode(p.str("workflow_mode")),
	}, nil
}

func (c *Client) ProbeModelReady(ctx context.Context, model string) (bool, error) {
	p, err := c.call(ctx, "model", "--status", "--model", model)
	if err != nil {
		return false, err
	}
	if err := p.failure("model status failed"); err != nil {
		return false, err
	}
	return p.boolean("is_available"), nil
}

func (c *Client) FetchModel(ctx context.Context, model string) (bool, error) {
	p, err := c.call(ctx, "model", "--ensure", "--model", model)
	if err != nil {
		return false, err
	}
	if err := p.failure("model ensure failed"); err != nil {
		return false, err
	}
	return p.boolean("downloaded"), nil
}

func (c *Client) ProviderStatus(ctx context.Context, provider config.ProviderID) (ProviderState, error) {
	return c.provider(ctx, "--status", provider, "provider status failed")
}

func (c *Client) ProviderLogin(ctx context.Context, provider config.ProviderID) (ProviderState, error) {
	return c.provider(ctx, "--login", provider, "provider login failed")
}

func (c *Client) provider(ctx context.Context, mode string, provider config.ProviderID, fallback string) (ProviderState, error) {
	p, err := c.call(ctx, "llm", mode, "--provider", string(provider))
	if err != nil {
		return ProviderState{}, err
	}
	if err := p.failure(fallback); err != nil {
		return ProviderState{}, err
	}
	return ProviderState{
		Installed:     p.boolean("installed"),
		Authenticated: p.boolean("authenticated"),
		Message:       p.str("message"),
	}, nil
}

// call runs one worker process and maps its outcome onto the error taxonomy.
// The returned payload has status ok or error.
func (c *Client) call(ctx context.Context, args ...string) (payload, error) {
	timeout := time.Duration(c.timeout.Load())
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	inv := invocation{Location: c.resolve(), Args: args}
	start := time.Now()
	res, err := c.runner.Run(ctx, inv)
	p, err := interpret(ctx, res, err, timeout)
	log.Worker(log.WorkerCall{
		Command:  inv.command(),
		ExitCode: res.ExitCode,
		Duration: time.Since(start),
		Err:      err,
	})
	return p, err
}

func interpret(ctx context.Context, res processResult, runErr error, timeout time.Duration) (payload, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		msg := "worker cancelled"
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			msg = fmt.Sprintf("worker timed out after %s", timeout)
		}
		return nil, &Error{Kind: ErrCommandFailed, Message: msg, Cause: ctxErr}
	}
	if runErr != nil {
		var werr *Error
		if errors.As(runErr, &werr) {
			return nil, werr
		}
		return nil, &Error{Kind: ErrCommandFailed, Message: runErr.Error(), Cause: runErr}
	}

	p, err := parsePayload(res.Stdout, res.Stderr)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 && p.str("status") != statusError {
		msg := res.Stderr
		if msg == "" {
			msg = res.Stdout
		}
		return nil, commandFailed(msg)
	}
	return p, nil
}
