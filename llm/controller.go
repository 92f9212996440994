package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"whisperclip/config"
	"whisperclip/log"
)

// View is the observable provider state for the host surface.
type View struct {
	Provider        config.ProviderID
	DisplayName     string
	StatusText      string
	ActionTitle     string
	ActionAvailable bool
	Busy            bool
	Editing         bool
	Installed       bool
	Authenticated   bool
}

type Options struct {
	Backend Backend
	// Credentials returns the currently stored cloud credentials.
	Credentials func() config.Credentials
	// SaveCredentials persists credentials committed from an edit.
	SaveCredentials func(config.Credentials) error
	// OnChange is called after any observable change, never under a lock.
	OnChange func()
}

// Controller derives and tracks the status of the selected refinement
// provider. Process-backed checks run in the background; results for a
// provider that has since been deselected are dropped.
type Controller struct {
	opts Options

	mu      sync.Mutex
	active  Provider
	gen     uint64
	status  Status
	editing bool
	draft   config.Credentials
	// busy is the provider whose action is running, nil when none is.
	busy Provider

	wg sync.WaitGroup
}

func New(id config.ProviderID, opts Options) *Controller {
	if opts.Credentials == nil {
		opts.Credentials = func() config.Credentials { return config.Credentials{} }
	}
	return &Controller{opts: opts, active: Lookup(id)}
}

// Select switches the active provider and re-derives its status.
func (c *Controller) Select(id config.ProviderID) {
	p := Lookup(id)
	c.mu.Lock()
	c.active = p
	c.editing = false
	c.mu.Unlock()
	log.Infof("llm_provider provider=%s", p.ID())
	c.Refresh()
}

// Refresh re-derives the active provider's status. Local providers answer
// before Refresh returns.
func (c *Controller) Refresh() {
	env := c.env()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	p := c.active
	if !p.NeedsProcess() {
		st, _ := p.CheckStatus(context.Background(), env)
		c.status = st
		c.mu.Unlock()
		c.changed()
		return
	}
	c.status = Status{Text: fmt.Sprintf("Checking %s…", p.DisplayName())}
	c.wg.Add(1)
	c.mu.Unlock()
	c.changed()

	go func() {
		defer c.wg.Done()
		st, err := p.CheckStatus(context.Background(), env)
		if err != nil {
			log.Warnf("llm_status_failed provider=%s err=%v", p.ID(), err)
			st = Status{Text: fmt.Sprintf("%s check failed: %v", p.DisplayName(), err)}
		}
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.status = st
		c.mu.Unlock()
		c.changed()
	}()
}

func (c *Controller) Provider() Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) StatusText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusTextLocked()
}

// busyLocked reports whether the active provider's own action is running.
func (c *Controller) busyLocked() bool {
	return c.busy != nil && c.busy.ID() == c.active.ID()
}

func (c *Controller) statusTextLocked() string {
	if c.busyLocked() {
		return c.active.ActionTitle() + " in progress…"
	}
	return c.status.Text
}

func (c *Controller) ActionAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actionAvailableLocked()
}

// actionAvailableLocked keeps process-backed actions single-flight. A local
// action stays available while another provider's action runs.
func (c *Controller) actionAvailableLocked() bool {
	if c.busy != nil && (c.busyLocked() || c.active.NeedsProcess()) {
		return false
	}
	return c.active.ActionAvailable(c.status)
}

// RunAction performs the active provider's action. Process-backed actions
// are single-flight: it reports false while one is already running or when
// no action is available.
func (c *Controller) RunAction() bool {
	env := c.env()
	env.BeginCredentialEdit = c.BeginCredentialEdit

	c.mu.Lock()
	if !c.actionAvailableLocked() {
		c.mu.Unlock()
		return false
	}
	p := c.active
	if !p.NeedsProcess() {
		c.mu.Unlock()
		p.PerformAction(context.Background(), env)
		return true
	}
	c.busy = p
	gen := c.gen
	c.wg.Add(1)
	c.mu.Unlock()
	log.Infof("llm_action_start provider=%s", p.ID())
	c.changed()

	go func() {
		defer c.wg.Done()
		st, err := p.PerformAction(context.Background(), env)
		if err != nil {
			log.Warnf("llm_action_failed provider=%s err=%v", p.ID(), err)
			st = Status{Text: fmt.Sprintf("%s failed: %v", p.ActionTitle(), err)}
		} else {
			log.Infof("llm_action_done provider=%s authenticated=%t", p.ID(), st.Authenticated)
		}
		c.mu.Lock()
		c.busy = nil
		if gen == c.gen {
			c.status = st
		}
		c.mu.Unlock()
		c.changed()
	}()
	return true
}

func (c *Controller) BeginCredentialEdit() {
	creds := c.opts.Credentials()
	c.mu.Lock()
	c.editing = true
	c.draft = creds
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) CancelCredentialEdit() {
	c.mu.Lock()
	c.editing = false
	c.mu.Unlock()
	c.changed()
}

// Editing returns the credentials being edited, if an edit is open.
func (c *Controller) Editing() (config.Credentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft, c.editing
}

// CommitCredentialEdit persists creds, closes the edit and re-derives the
// status. The edit stays open if saving fails.
func (c *Controller) CommitCredentialEdit(creds config.Credentials) error {
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.Model = strings.TrimSpace(creds.Model)
	if creds.Model == "" {
		creds.Model = config.DefaultOpenAIModel
	}
	if c.opts.SaveCredentials != nil {
		if err := c.opts.SaveCredentials(creds); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
	}
	c.mu.Lock()
	c.editing = false
	c.draft = creds
	c.mu.Unlock()
	log.Info("llm_credentials_saved")
	c.Refresh()
	return nil
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Provider:        c.active.ID(),
		DisplayName:     c.active.DisplayName(),
		StatusText:      c.statusTextLocked(),
		ActionTitle:     c.active.ActionTitle(),
		ActionAvailable: c.actionAvailableLocked(),
		Busy:            c.busyLocked(),
		Editing:         c.editing,
		Installed:       c.status.Installed,
		Authenticated:   c.status.Authenticated,
	}
}

// Wait blocks until background checks and actions have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) env() Env {
	return Env{Backend: c.opts.Backend, Credentials: c.opts.Credentials()}
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}
