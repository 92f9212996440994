// Package recording owns the record/transcribe lifecycle. A single Toggle
// drives idle -> recording -> transcribing -> copied (or failed), with the
// worker calls running in the background.
package recording

import (
	"context"
	"fmt"
	"sync"

	"whisperclip/beep"
	"whisperclip/config"
	"whisperclip/llm"
	"whisperclip/log"
	"whisperclip/notify"
	"whisperclip/warmup"
	"whisperclip/worker"
)

// Worker is the process-backed half of a session.
type Worker interface {
	StartRecording(ctx context.Context, req worker.StartRequest) error
	StopRecording(ctx context.Context, req worker.StopRequest) (worker.TranscriptionResult, error)
	ProbeModelReady(ctx context.Context, model string) (bool, error)
	FetchModel(ctx context.Context, model string) (bool, error)
}

type Clipboard interface {
	Copy(text string) error
}

type Paster interface {
	Paste() error
}

type SettingsStore interface {
	Save(config.Settings) error
}

type Options struct {
	Settings  config.Settings
	Store     SettingsStore
	Worker    Worker
	Clipboard Clipboard
	Paster    Paster
	Notifier  notify.Notifier
	Player    beep.Player
	// Backend serves provider checks. Defaults to Worker when it
	// implements llm.Backend.
	Backend llm.Backend
}

type Machine struct {
	worker   Worker
	clip     Clipboard
	paster   Paster
	notifier notify.Notifier
	store    SettingsStore
	sounds   *beep.Controller
	warm     *warmup.Controller
	llm      *llm.Controller

	mu         sync.Mutex
	settings   config.Settings
	status     Status
	statusText string
	last       *worker.TranscriptionResult
	lastError  string
	session    uint64
	count      int
	observers  []Observer

	wg sync.WaitGroup
}

func New(opts Options) *Machine {
	s := opts.Settings.Normalize()
	m := &Machine{
		worker:     opts.Worker,
		clip:       opts.Clipboard,
		paster:     opts.Paster,
		notifier:   opts.Notifier,
		store:      opts.Store,
		settings:   s,
		status:     Idle,
		statusText: textIdle,
	}
	if m.notifier == nil {
		m.notifier = notify.Nop{}
	}
	m.sounds = beep.NewController(opts.Player, s.SoundCues, s.TranscribingLoop)
	m.warm = warmup.New(opts.Worker, warmup.Callbacks{
		Progress: m.warmupProgress,
		Done:     func(warmup.Outcome) { m.changed() },
	})

	backend := opts.Backend
	if backend == nil {
		backend, _ = opts.Worker.(llm.Backend)
	}
	m.llm = llm.New(s.LLMProvider, llm.Options{
		Backend:         backend,
		Credentials:     func() config.Credentials { return m.Settings().Credentials },
		SaveCredentials: m.saveCredentials,
		OnChange:        m.changed,
	})
	return m
}

// Start runs the startup model warm-up and the first provider check.
func (m *Machine) Start() {
	s := m.Settings()
	log.SessionStart(s.Model, s.Language, string(s.LLMProvider))
	m.warm.WarmUp(s.Model)
	m.llm.Refresh()
}

// Close stops background warm-up and records the session summary.
func (m *Machine) Close() {
	m.warm.Cancel()
	m.mu.Lock()
	n := m.count
	m.mu.Unlock()
	log.SessionEnd(n)
}

func (m *Machine) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Toggle starts a recording, stops one, or does nothing while a
// transcription is in flight. The transition commits before any worker
// call is dispatched, so a second Toggle always sees the new status.
func (m *Machine) Toggle() {
	m.mu.Lock()
	switch m.status {
	case Idle, Copied, Failed:
		m.beginRecordingLocked()
	case Recording:
		m.beginTranscribingLocked()
	case Transcribing:
		m.mu.Unlock()
		log.Info("toggle_ignored: transcribing")
		return
	}
	m.mu.Unlock()
	m.changed()
}

func (m *Machine) beginRecordingLocked() {
	m.session++
	seq := m.session
	m.status = Recording
	m.statusText = textRecording
	m.lastError = ""
	m.sounds.Play(beep.CueStart)

	req := worker.StartRequest{Model: m.settings.Model, Language: m.settings.Language}
	log.Infof("record_start session=%d model=%s lang=%s", seq, req.Model, req.Language)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.worker.StartRecording(context.Background(), req); err != nil {
			m.fail(seq, "record start", err)
		}
	}()
}

func (m *Machine) beginTranscribingLocked() {
	seq := m.session
	m.status = Transcribing
	m.statusText = textTranscribing
	m.sounds.Play(beep.CueStop)
	m.sounds.SetTranscribing(true)

	s := m.settings
	log.Infof("record_stop session=%d", seq)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.stopWorkflow(seq, s)
	}()
}

// stopWorkflow checks the model, fetches it if missing, then transcribes.
// A failed probe is treated as ready; a failed fetch is fatal.
func (m *Machine) stopWorkflow(seq uint64, s config.Settings) {
	ctx := context.Background()

	ready, err := m.worker.ProbeModelReady(ctx, s.Model)
	if err != nil {
		log.Warnf("model_probe_failed model=%s err=%v (assuming ready)", s.Model, err)
		ready = true
	}
	if !ready {
		m.setTranscribingText(seq, fmt.Sprintf("Downloading model %s…", s.Model))
		if _, err := m.worker.FetchModel(ctx, s.Model); err != nil {
			m.fail(seq, "model fetch", err)
			return
		}
		m.setTranscribingText(seq, textTranscribing)
	}

	res, err := m.worker.StopRecording(ctx, m.stopRequest(s))
	if err != nil {
		m.fail(seq, "record stop", err)
		return
	}
	m.succeed(seq, res, s.AutoPaste)
}

func (m *Machine) stopRequest(s config.Settings) worker.StopRequest {
	req := worker.StopRequest{
		Model:         s.Model,
		Language:      s.Language,
		RefineEnabled: s.RefineEnabled,
		WorkflowMode:  s.WorkflowMode,
		Provider:      s.LLMProvider,
	}
	if llm.Lookup(s.LLMProvider).SendsCredentials() {
		creds := s.Credentials
		req.Credentials = &creds
	}
	return req
}

func (m *Machine) succeed(seq uint64, res worker.TranscriptionResult, autoPaste bool) {
	m.mu.Lock()
	// A failed start may already have ended this session.
	if seq != m.session || m.status != Transcribing {
		m.mu.Unlock()
		log.Warnf("stale_result session=%d discarded", seq)
		return
	}
	m.sounds.SetTranscribing(false)
	m.last = &res
	m.mu.Unlock()

	if err := m.clip.Copy(res.Text); err != nil {
		m.fail(seq, "clipboard", fmt.Errorf("copy to clipboard: %w", err))
		return
	}
	if autoPaste && m.paster != nil {
		if err := m.paster.Paste(); err != nil {
			log.Warnf("auto_paste_failed: %v", err)
		}
	}

	m.mu.Lock()
	if seq != m.session || m.status != Transcribing {
		m.mu.Unlock()
		return
	}
	m.status = Copied
	m.statusText = textCopied
	m.count++
	m.mu.Unlock()

	m.sounds.Play(beep.CueComplete)
	m.notifier.Notify(notifyTitle, notifyCopiedBody)
	log.Transcription(res.LatencyMS, string(res.WorkflowMode), res.Refined, res.ModelDownloaded)
	log.TranscriptionText(res.Text)
	m.changed()
}

func (m *Machine) fail(seq uint64, stage string, err error) {
	m.mu.Lock()
	if seq != m.session {
		m.mu.Unlock()
		log.Warnf("stale_failure session=%d stage=%s discarded: %v", seq, stage, err)
		return
	}
	m.sounds.SetTranscribing(false)
	m.status = Failed
	m.statusText = textFailed
	m.lastError = err.Error()
	m.mu.Unlock()

	log.Errorf("%s failed: %v", stage, err)
	m.notifier.Notify(notifyFailedTitle, err.Error())
	m.changed()
}

func (m *Machine) setTranscribingText(seq uint64, text string) {
	m.mu.Lock()
	if seq != m.session || m.status != Transcribing {
		m.mu.Unlock()
		return
	}
	m.statusText = text
	m.mu.Unlock()
	m.changed()
}

// CopyLastTranscription writes the last result to the clipboard again.
// The status only moves to copied when no session is in flight.
func (m *Machine) CopyLastTranscription() error {
	m.mu.Lock()
	if m.last == nil || m.last.Text == "" {
		m.mu.Unlock()
		return nil
	}
	text := m.last.Text
	m.mu.Unlock()

	if err := m.clip.Copy(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	m.mu.Lock()
	if m.status != Recording && m.status != Transcribing {
		m.status = Copied
		m.statusText = textCopied
	}
	m.mu.Unlock()
	log.Info("copy_last")
	m.changed()
	return nil
}

// WarmUpModel prefetches model in the background, superseding any
// warm-up already running.
func (m *Machine) WarmUpModel(model string) {
	m.warm.WarmUp(model)
}

func (m *Machine) warmupProgress(_, text string) {
	m.mu.Lock()
	if m.status != Idle {
		m.mu.Unlock()
		return
	}
	if text == "" {
		text = textIdle
	}
	m.statusText = text
	m.mu.Unlock()
	m.changed()
}

func (m *Machine) RefreshLLMStatus() {
	m.llm.Refresh()
}

// RunProviderAction reports whether the provider's action was started.
func (m *Machine) RunProviderAction() bool {
	return m.llm.RunAction()
}

func (m *Machine) BeginCredentialEdit() {
	m.llm.BeginCredentialEdit()
}

func (m *Machine) CancelCredentialEdit() {
	m.llm.CancelCredentialEdit()
}

func (m *Machine) CommitCredentialEdit(c config.Credentials) error {
	return m.llm.CommitCredentialEdit(c)
}

// CredentialDraft returns the credentials being edited, if any.
func (m *Machine) CredentialDraft() (config.Credentials, bool) {
	return m.llm.Editing()
}

func (m *Machine) Settings() config.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	snap := Snapshot{
		Status:     m.status,
		StatusText: m.statusText,
		LastError:  m.lastError,
		Settings:   m.settings,
	}
	if m.last != nil {
		snap.LastTranscription = *m.last
		snap.HasTranscription = true
	}
	m.mu.Unlock()

	snap.WarmingUp = m.warm.Active()
	snap.LLM = m.llm.View()
	return snap
}

// Wait blocks until in-flight worker calls and provider checks finish.
func (m *Machine) Wait() {
	m.wg.Wait()
	m.llm.Wait()
}

func (m *Machine) changed() {
	m.mu.Lock()
	obs := make([]Observer, len(m.observers))
	copy(obs, m.observers)
	m.mu.Unlock()
	if len(obs) == 0 {
		return
	}
	snap := m.Snapshot()
	for _, o := range obs {
		o(snap)
	}
}
