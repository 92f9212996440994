package recording

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"whisperclip/beep"
	"whisperclip/config"
	"whisperclip/worker"
)

type fakeWorker struct {
	mu sync.Mutex

	startErrs []error
	startGate chan struct{}
	stopGate  chan struct{}
	fetchGate chan struct{}

	stopResult worker.TranscriptionResult
	stopErr    error
	probeReady bool
	probeErr   error
	fetchErr   error

	starts        int
	stopRequests  []worker.StopRequest
	probes        []string
	fetches       []string
	providerCalls int
}

func newFakeWorker() *fakeWorker {
	return &fakeWorker{probeReady: true}
}

func (f *fakeWorker) StartRecording(context.Context, worker.StartRequest) error {
	f.mu.Lock()
	f.starts++
	var err error
	if len(f.startErrs) > 0 {
		err, f.startErrs = f.startErrs[0], f.startErrs[1:]
	}
	gate := f.startGate
	f.startGate = nil
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeWorker) StopRecording(_ context.Context, req worker.StopRequest) (worker.TranscriptionResult, error) {
	f.mu.Lock()
	f.stopRequests = append(f.stopRequests, req)
	gate := f.stopGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopResult, f.stopErr
}

func (f *fakeWorker) ProbeModelReady(_ context.Context, model string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, model)
	return f.probeReady, f.probeErr
}

func (f *fakeWorker) FetchModel(_ context.Context, model string) (bool, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, model)
	gate := f.fetchGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchErr == nil, f.fetchErr
}

func (f *fakeWorker) ProviderStatus(context.Context, config.ProviderID) (worker.ProviderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providerCalls++
	return worker.ProviderState{Installed: true, Authenticated: true}, nil
}

func (f *fakeWorker) ProviderLogin(context.Context, config.ProviderID) (worker.ProviderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providerCalls++
	return worker.ProviderState{Installed: true, Authenticated: true}, nil
}

type fakeClipboard struct {
	mu     sync.Mutex
	copies []string
	err    error
}

func (f *fakeClipboard) Copy(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.copies = append(f.copies, text)
	return nil
}

type fakePaster struct {
	mu     sync.Mutex
	pastes int
}

func (f *fakePaster) Paste() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pastes++
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []string
}

func (f *fakeNotifier) Notify(title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, title+": "+body)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.notes)
}

type fakePlayer struct {
	mu      sync.Mutex
	cues    []beep.Cue
	looping bool
	starts  int
}

func (f *fakePlayer) Play(c beep.Cue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, c)
}

func (f *fakePlayer) StartLoop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.looping = true
	f.starts++
}

func (f *fakePlayer) StopLoop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.looping = false
}

func (f *fakePlayer) state() ([]beep.Cue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cues), f.looping
}

type fakeStore struct {
	mu    sync.Mutex
	saved []config.Settings
}

func (f *fakeStore) Save(s config.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) last() (config.Settings, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return config.Settings{}, false
	}
	return f.saved[len(f.saved)-1], true
}

type harness struct {
	m        *Machine
	worker   *fakeWorker
	clip     *fakeClipboard
	paster   *fakePaster
	notifier *fakeNotifier
	player   *fakePlayer
	store    *fakeStore
}

func newHarness(t *testing.T, mutate func(*config.Settings)) *harness {
	t.Helper()
	s := config.Defaults()
	if mutate != nil {
		mutate(&s)
	}
	h := &harness{
		worker:   newFakeWorker(),
		clip:     &fakeClipboard{},
		paster:   &fakePaster{},
		notifier: &fakeNotifier{},
		player:   &fakePlayer{},
		store:    &fakeStore{},
	}
	h.m = New(Options{
		Settings:  s,
		Store:     h.store,
		Worker:    h.worker,
		Clipboard: h.clip,
		Paster:    h.paster,
		Notifier:  h.notifier,
		Player:    h.player,
	})
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestToggleStartsRecordingFromRestingStates(t *testing.T) {
	for _, from := range []Status{Idle, Copied, Failed} {
		t.Run(from.String(), func(t *testing.T) {
			h := newHarness(t, nil)
			h.m.status = from
			h.m.lastError = "previous"
			h.m.Toggle()
			snap := h.m.Snapshot()
			if snap.Status != Recording || snap.StatusText != "Recording…" {
				t.Errorf("status = %s %q", snap.Status, snap.StatusText)
			}
			if snap.LastError != "" {
				t.Errorf("lastError not cleared: %q", snap.LastError)
			}
			h.m.Wait()
			if cues, _ := h.player.state(); !slices.Equal(cues, []beep.Cue{beep.CueStart}) {
				t.Errorf("cues = %v", cues)
			}
		})
	}
}

func TestStopSuccessCopiesResult(t *testing.T) {
	h := newHarness(t, func(s *config.Settings) {
		s.AutoPaste = true
		s.WorkflowMode = config.ModeEmail
	})
	h.worker.stopResult = worker.TranscriptionResult{
		Text:         "hello",
		LatencyMS:    120,
		WorkflowMode: config.ModeEmail,
	}

	h.m.Toggle()
	h.m.Toggle()
	h.m.Wait()

	snap := h.m.Snapshot()
	if snap.Status != Copied || snap.StatusText != "Copied ✅" {
		t.Fatalf("status = %s %q (err %q)", snap.Status, snap.StatusText, snap.LastError)
	}
	if !snap.HasTranscription || snap.LastTranscription.Text != "hello" || snap.LastTranscription.LatencyMS != 120 {
		t.Errorf("last transcription = %+v", snap.LastTranscription)
	}
	if snap.LastTranscription.WorkflowMode != h.worker.stopRequests[0].WorkflowMode {
		t.Errorf("workflow mode sent %s, stored %s", h.worker.stopRequests[0].WorkflowMode, snap.LastTranscription.WorkflowMode)
	}
	if !slices.Equal(h.clip.copies, []string{"hello"}) {
		t.Errorf("clipboard = %v", h.clip.copies)
	}
	if h.paster.pastes != 1 {
		t.Errorf("pastes = %d", h.paster.pastes)
	}
	cues, looping := h.player.state()
	if looping {
		t.Error("loop still playing after success")
	}
	if !slices.Equal(cues, []beep.Cue{beep.CueStart, beep.CueStop, beep.CueComplete}) {
		t.Errorf("cues = %v", cues)
	}
	if notes := h.notifier.all(); !slices.Equal(notes, []string{"Whisper Clip: Transcription copied to clipboard"}) {
		t.Errorf("notifications = %v", notes)
	}
}

func TestNoPasteWhenDisabled(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.stopResult = worker.TranscriptionResult{Text: "hi"}
	h.m.Toggle()
	h.m.Toggle()
	h.m.Wait()
	if h.paster.pastes != 0 {
		t.Errorf("pastes = %d, want 0", h.paster.pastes)
	}
}

func TestStopFailureSurfacesMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		kind    error
	}{
		{
			name:    "reported error",
			err:     &worker.Error{Kind: worker.ErrCommandFailed, Message: "boom"},
			wantMsg: "boom",
			kind:    worker.ErrCommandFailed,
		},
		{
			name:    "invalid response",
			err:     &worker.Error{Kind: worker.ErrInvalidResponse, Diagnostics: "Traceback"},
			wantMsg: "Invalid backend response: Traceback",
			kind:    worker.ErrInvalidResponse,
		},
		{
			name:    "missing interpreter",
			err:     &worker.Error{Kind: worker.ErrExecutableNotFound, Message: "/nope/python"},
			wantMsg: "Python executable not found: /nope/python",
			kind:    worker.ErrExecutableNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Fatalf("test error does not match its kind")
			}
			h := newHarness(t, nil)
			h.worker.stopErr = tt.err

			h.m.Toggle()
			h.m.Toggle()
			h.m.Wait()

			snap := h.m.Snapshot()
			if snap.Status != Failed || snap.StatusText != "Failed ❌" {
				t.Fatalf("status = %s %q", snap.Status, snap.StatusText)
			}
			if snap.LastError != tt.wantMsg {
				t.Errorf("lastError = %q, want %q", snap.LastError, tt.wantMsg)
			}
			if _, looping := h.player.state(); looping {
				t.Error("loop still playing after failure")
			}
			if len(h.clip.copies) != 0 {
				t.Errorf("clipboard written on failure: %v", h.clip.copies)
			}
			want := "Whisper Clip Failed: " + tt.wantMsg
			if notes := h.notifier.all(); !slices.Equal(notes, []string{want}) {
				t.Errorf("notifications = %v", notes)
			}
		})
	}
}

func TestStartFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.startErrs = []error{&worker.Error{Kind: worker.ErrCommandFailed, Message: "no microphone"}}
	h.m.Toggle()
	h.m.Wait()
	snap := h.m.Snapshot()
	if snap.Status != Failed || snap.LastError != "no microphone" {
		t.Errorf("snapshot = %s %q", snap.Status, snap.LastError)
	}

	h.m.Toggle()
	if snap := h.m.Snapshot(); snap.Status != Recording || snap.LastError != "" {
		t.Errorf("retry: %s %q", snap.Status, snap.LastError)
	}
	h.m.Wait()
}

func TestToggleIgnoredWhileTranscribing(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.stopGate = make(chan struct{})
	h.worker.stopResult = worker.TranscriptionResult{Text: "once"}

	h.m.Toggle()
	h.m.Toggle()
	for range 3 {
		h.m.Toggle()
		if s := h.m.Snapshot().Status; s != Transcribing {
			t.Fatalf("status = %s, want transcribing", s)
		}
	}
	close(h.worker.stopGate)
	h.m.Wait()

	if n := len(h.worker.stopRequests); n != 1 {
		t.Errorf("stop calls = %d, want 1", n)
	}
	if h.worker.starts != 1 {
		t.Errorf("start calls = %d, want 1", h.worker.starts)
	}
	if s := h.m.Snapshot().Status; s != Copied {
		t.Errorf("final status = %s", s)
	}
}

func TestLoopFollowsSettingsMidTranscription(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.stopGate = make(chan struct{})

	h.m.Toggle()
	h.m.Toggle()
	if !h.m.LoopPlaying() {
		t.Fatal("loop should play while transcribing")
	}

	h.m.SetTranscribingLoop(false)
	if _, looping := h.player.state(); looping {
		t.Error("loop still playing after it was switched off")
	}
	h.m.SetTranscribingLoop(true)
	if _, looping := h.player.state(); !looping {
		t.Error("loop did not restart when switched back on")
	}
	h.m.SetSoundCues(false)
	if _, looping := h.player.state(); looping {
		t.Error("loop still playing after sound cues were switched off")
	}
	h.m.SetSoundCues(true)

	close(h.worker.stopGate)
	h.m.Wait()
	if _, looping := h.player.state(); looping {
		t.Error("loop still playing after leaving transcribing")
	}
	if h.player.starts != 3 {
		t.Errorf("loop starts = %d, want 3", h.player.starts)
	}
}

func TestProbeFailureAssumesReady(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.probeErr = errors.New("probe crashed")
	h.worker.stopResult = worker.TranscriptionResult{Text: "ok"}

	h.m.Toggle()
	h.m.Toggle()
	h.m.Wait()

	if s := h.m.Snapshot().Status; s != Copied {
		t.Errorf("status = %s, want copied", s)
	}
	if len(h.worker.fetches) != 0 {
		t.Errorf("fetches = %v, want none", h.worker.fetches)
	}
}

func TestMissingModelIsFetchedBeforeTranscribing(t *testing.T) {
	h := newHarness(t, func(s *config.Settings) { s.Model = "medium" })
	h.worker.probeReady = false
	h.worker.fetchGate = make(chan struct{})
	h.worker.stopResult = worker.TranscriptionResult{Text: "ok", ModelDownloaded: true}

	h.m.Toggle()
	h.m.Toggle()
	waitFor(t, "download status", func() bool {
		return h.m.Snapshot().StatusText == "Downloading model medium…"
	})
	if s := h.m.Snapshot().Status; s != Transcribing {
		t.Errorf("status during fetch = %s", s)
	}
	close(h.worker.fetchGate)
	h.m.Wait()

	if s := h.m.Snapshot().Status; s != Copied {
		t.Errorf("status = %s", s)
	}
	if !slices.Equal(h.worker.fetches, []string{"medium"}) {
		t.Errorf("fetches = %v", h.worker.fetches)
	}
}

func TestFetchFailureIsFatal(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.probeReady = false
	h.worker.fetchErr = &worker.Error{Kind: worker.ErrCommandFailed, Message: "model download failed"}

	h.m.Toggle()
	h.m.Toggle()
	h.m.Wait()

	snap := h.m.Snapshot()
	if snap.Status != Failed || snap.LastError != "model download failed" {
		t.Errorf("snapshot = %s %q", snap.Status, snap.LastError)
	}
	if len(h.worker.stopRequests) != 0 {
		t.Error("transcribe called after failed fetch")
	}
}

func TestCredentialsSentOnlyForCloudProvider(t *testing.T) {
	tests := []struct {
		provider  config.ProviderID
		wantCreds bool
	}{
		{config.ProviderCodexCLI, false},
		{config.ProviderOpenAIAPI, true},
		{config.ProviderAzureOpenAI, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			h := newHarness(t, func(s *config.Settings) {
				s.LLMProvider = tt.provider
				s.RefineEnabled = true
				s.APIKey = "sk-test"
			})
			h.m.Toggle()
			h.m.Toggle()
			h.m.Wait()

			req := h.worker.stopRequests[0]
			if req.Provider != tt.provider || !req.RefineEnabled {
				t.Errorf("request = %+v", req)
			}
			if got := req.Credentials != nil; got != tt.wantCreds {
				t.Fatalf("credentials sent = %v, want %v", got, tt.wantCreds)
			}
			if tt.wantCreds && req.Credentials.APIKey != "sk-test" {
				t.Errorf("api key = %q", req.Credentials.APIKey)
			}
		})
	}
}

func TestSettingsChangeMidFlightDoesNotAffectDispatchedCall(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.stopGate = make(chan struct{})
	h.m.Toggle()
	h.m.Toggle()
	waitFor(t, "stop call", func() bool {
		h.worker.mu.Lock()
		defer h.worker.mu.Unlock()
		return len(h.worker.stopRequests) == 1
	})
	h.m.SetWorkflowMode(config.ModeTicket)
	close(h.worker.stopGate)
	h.m.Wait()

	if got := h.worker.stopRequests[0].WorkflowMode; got != config.ModeNormal {
		t.Errorf("dispatched workflow mode = %s", got)
	}
	if got := h.m.Settings().WorkflowMode; got != config.ModeTicket {
		t.Errorf("stored workflow mode = %s", got)
	}
}

func TestStaleStartFailureDiscarded(t *testing.T) {
	h := newHarness(t, nil)
	gate := make(chan struct{})
	h.worker.startGate = gate
	h.worker.startErrs = []error{errors.New("late failure")}
	h.worker.stopResult = worker.TranscriptionResult{Text: "first"}

	h.m.Toggle()
	waitFor(t, "first start call", func() bool {
		h.worker.mu.Lock()
		defer h.worker.mu.Unlock()
		return h.worker.starts == 1
	})
	h.m.Toggle()
	waitFor(t, "first session copied", func() bool { return h.m.Snapshot().Status == Copied })

	h.m.Toggle()
	close(gate)
	h.m.Wait()

	snap := h.m.Snapshot()
	if snap.Status != Recording || snap.LastError != "" {
		t.Errorf("stale failure applied: %s %q", snap.Status, snap.LastError)
	}
}

func TestStartFailureDuringTranscribingWins(t *testing.T) {
	h := newHarness(t, nil)
	startGate := make(chan struct{})
	stopGate := make(chan struct{})
	h.worker.startGate = startGate
	h.worker.startErrs = []error{errors.New("mic busy")}
	h.worker.stopResult = worker.TranscriptionResult{Text: "ghost"}
	h.worker.mu.Lock()
	h.worker.stopGate = stopGate
	h.worker.mu.Unlock()

	h.m.Toggle()
	waitFor(t, "start call", func() bool {
		h.worker.mu.Lock()
		defer h.worker.mu.Unlock()
		return h.worker.starts == 1
	})
	h.m.Toggle()
	if s := h.m.Snapshot().Status; s != Transcribing {
		t.Fatalf("status = %s, want transcribing", s)
	}
	close(startGate)
	waitFor(t, "start failure", func() bool { return h.m.Snapshot().Status == Failed })
	close(stopGate)
	h.m.Wait()

	snap := h.m.Snapshot()
	if snap.Status != Failed || !strings.Contains(snap.LastError, "mic busy") {
		t.Errorf("snapshot = %s %q", snap.Status, snap.LastError)
	}
	h.clip.mu.Lock()
	copies := slices.Clone(h.clip.copies)
	h.clip.mu.Unlock()
	if len(copies) != 0 {
		t.Errorf("copies = %v", copies)
	}
}

func TestClipboardFailureFails(t *testing.T) {
	h := newHarness(t, nil)
	h.clip.err = errors.New("no display")
	h.worker.stopResult = worker.TranscriptionResult{Text: "hello"}
	h.m.Toggle()
	h.m.Toggle()
	h.m.Wait()

	snap := h.m.Snapshot()
	if snap.Status != Failed || !strings.Contains(snap.LastError, "no display") {
		t.Errorf("snapshot = %s %q", snap.Status, snap.LastError)
	}
	if !snap.HasTranscription {
		t.Error("transcription should still be retained")
	}
}

func TestCopyLastTranscription(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.m.CopyLastTranscription(); err != nil || len(h.clip.copies) != 0 {
		t.Fatalf("empty copy: err=%v copies=%v", err, h.clip.copies)
	}

	h.worker.stopResult = worker.TranscriptionResult{Text: "again"}
	h.m.Toggle()
	h.m.Toggle()
	h.m.Wait()
	h.m.status = Failed

	if err := h.m.CopyLastTranscription(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(h.clip.copies, []string{"again", "again"}) {
		t.Errorf("clipboard = %v", h.clip.copies)
	}
	if s := h.m.Snapshot().Status; s != Copied {
		t.Errorf("status = %s", s)
	}

	h.m.Toggle()
	if err := h.m.CopyLastTranscription(); err != nil {
		t.Fatal(err)
	}
	if s := h.m.Snapshot().Status; s != Recording {
		t.Errorf("copy during recording changed status to %s", s)
	}
	h.m.Wait()
}

func TestPlaceholderProviderIssuesNoProcessCall(t *testing.T) {
	h := newHarness(t, nil)
	h.m.SetLLMProvider(config.ProviderAzureOpenAI)
	h.m.RefreshLLMStatus()
	h.m.Wait()

	snap := h.m.Snapshot()
	if snap.LLM.ActionAvailable || h.m.RunProviderAction() {
		t.Error("placeholder offers an action")
	}
	if !strings.Contains(snap.LLM.StatusText, "not usable") {
		t.Errorf("llm status = %q", snap.LLM.StatusText)
	}
	if h.worker.providerCalls != 0 {
		t.Errorf("provider calls = %d", h.worker.providerCalls)
	}
	if saved, ok := h.store.last(); !ok || saved.LLMProvider != config.ProviderAzureOpenAI {
		t.Errorf("provider not persisted: %+v", saved)
	}
}

func TestStartRefreshesProviderAndWarmsModel(t *testing.T) {
	h := newHarness(t, nil)
	h.m.Start()
	h.m.Wait()
	waitFor(t, "warm-up", func() bool { return !h.m.Snapshot().WarmingUp })

	if h.worker.providerCalls != 1 {
		t.Errorf("provider calls = %d, want 1", h.worker.providerCalls)
	}
	if v := h.m.Snapshot().LLM; v.StatusText != "Codex CLI ready" {
		t.Errorf("llm status = %q", v.StatusText)
	}
	h.worker.mu.Lock()
	probes := slices.Clone(h.worker.probes)
	h.worker.mu.Unlock()
	if !slices.Equal(probes, []string{config.DefaultModel}) {
		t.Errorf("probes = %v", probes)
	}
}

func TestSetModelPersistsAndWarmsUp(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.probeReady = false
	h.worker.fetchGate = make(chan struct{})

	h.m.SetModel("large-v3")
	waitFor(t, "download text", func() bool {
		return h.m.Snapshot().StatusText == "Downloading model large-v3…"
	})
	if s := h.m.Snapshot().Status; s != Idle {
		t.Errorf("warm-up changed status to %s", s)
	}
	close(h.worker.fetchGate)
	waitFor(t, "idle text", func() bool { return h.m.Snapshot().StatusText == "Idle" })

	saved, ok := h.store.last()
	if !ok || saved.Model != "large-v3" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestWarmupFailureIsSilent(t *testing.T) {
	h := newHarness(t, nil)
	h.worker.probeReady = false
	h.worker.fetchErr = errors.New("offline")
	h.m.WarmUpModel("tiny")
	waitFor(t, "warm-up", func() bool { return !h.m.Snapshot().WarmingUp })

	snap := h.m.Snapshot()
	if snap.Status != Idle || snap.LastError != "" || snap.StatusText != "Idle" {
		t.Errorf("warm-up failure leaked: %+v", snap)
	}
	if len(h.notifier.all()) != 0 {
		t.Errorf("notifications = %v", h.notifier.all())
	}
}

func TestObserversReceiveSnapshots(t *testing.T) {
	h := newHarness(t, nil)
	var mu sync.Mutex
	var seen []Status
	h.m.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Status)
	})
	h.worker.stopResult = worker.TranscriptionResult{Text: "x"}
	h.m.Toggle()
	h.m.Toggle()
	h.m.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[0] != Recording || seen[len(seen)-1] != Copied {
		t.Errorf("observed = %v", seen)
	}
}

func TestCommitCredentialsPersists(t *testing.T) {
	h := newHarness(t, func(s *config.Settings) { s.LLMProvider = config.ProviderOpenAIAPI })
	h.m.RefreshLLMStatus()
	if !h.m.RunProviderAction() {
		t.Fatal("credential action refused")
	}
	if _, editing := h.m.CredentialDraft(); !editing {
		t.Fatal("edit not open")
	}
	if err := h.m.CommitCredentialEdit(config.Credentials{APIKey: "sk-new", Model: "gpt-4o"}); err != nil {
		t.Fatal(err)
	}
	if got := h.m.Settings().Credentials; got.APIKey != "sk-new" || got.Model != "gpt-4o" {
		t.Errorf("credentials = %+v", got)
	}
	if saved, _ := h.store.last(); saved.APIKey != "sk-new" {
		t.Errorf("saved = %+v", saved)
	}
	if v := h.m.Snapshot().LLM; v.StatusText != "OpenAI API configured (gpt-4o)" {
		t.Errorf("llm status = %q", v.StatusText)
	}
}
