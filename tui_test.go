package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"whisperclip/config"
	"whisperclip/llm"
	"whisperclip/recording"
)

type fakeControls struct {
	settings  config.Settings
	toggles   int
	actionOK  bool
	draft     config.Credentials
	committed *config.Credentials
	cancelled bool
	refreshed bool
}

func newFakeControls() *fakeControls {
	return &fakeControls{settings: config.Defaults()}
}

func (f *fakeControls) Toggle()                               { f.toggles++ }
func (f *fakeControls) CopyLastTranscription() error          { return nil }
func (f *fakeControls) Settings() config.Settings             { return f.settings }
func (f *fakeControls) SetModel(m string)                     { f.settings.Model = m }
func (f *fakeControls) SetLanguage(l string)                  { f.settings.Language = l }
func (f *fakeControls) SetWorkflowMode(m config.WorkflowMode) { f.settings.WorkflowMode = m }
func (f *fakeControls) SetLLMProvider(p config.ProviderID)    { f.settings.LLMProvider = p }
func (f *fakeControls) SetRefineEnabled(on bool)              { f.settings.RefineEnabled = on }
func (f *fakeControls) SetSoundCues(on bool)                  { f.settings.SoundCues = on }
func (f *fakeControls) SetTranscribingLoop(on bool)           { f.settings.TranscribingLoop = on }
func (f *fakeControls) SetAutoPaste(on bool)                  { f.settings.AutoPaste = on }
func (f *fakeControls) RunProviderAction() bool               { return f.actionOK }
func (f *fakeControls) RefreshLLMStatus()                     { f.refreshed = true }
func (f *fakeControls) CancelCredentialEdit()                 { f.cancelled = true }

func (f *fakeControls) CommitCredentialEdit(c config.Credentials) error {
	f.committed = &c
	return nil
}

func (f *fakeControls) CredentialDraft() (config.Credentials, bool) {
	return f.draft, true
}

func press(m tuiModel, keys ...tea.KeyMsg) tuiModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(tuiModel)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTUIKeysDriveMachine(t *testing.T) {
	ctrl := newFakeControls()
	m := newTUIModel(ctrl, recording.Snapshot{})

	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, runes("m"), runes("l"), runes("w"), runes("f"), runes("t"), runes("r"))

	if ctrl.toggles != 1 {
		t.Errorf("toggles = %d, want 1", ctrl.toggles)
	}
	s := ctrl.settings
	if s.Model != "medium" {
		t.Errorf("model = %q, want medium after small", s.Model)
	}
	if s.Language != "en" {
		t.Errorf("language = %q, want en after auto", s.Language)
	}
	if s.WorkflowMode != config.ModeEmail {
		t.Errorf("workflow = %q, want email", s.WorkflowMode)
	}
	if !s.RefineEnabled || !s.AutoPaste {
		t.Errorf("refine=%v autopaste=%v, want both on", s.RefineEnabled, s.AutoPaste)
	}
	if !ctrl.refreshed {
		t.Error("r did not refresh provider status")
	}
}

func TestTUIProviderActionUnavailable(t *testing.T) {
	ctrl := newFakeControls()
	m := press(newTUIModel(ctrl, recording.Snapshot{}), runes("a"))
	if m.notice == "" {
		t.Error("expected a notice when no action is available")
	}
}

func TestTUICredentialEntry(t *testing.T) {
	ctrl := newFakeControls()
	ctrl.draft = config.Credentials{Model: "gpt-4o-mini"}
	m := newTUIModel(ctrl, recording.Snapshot{})

	next, _ := m.Update(snapshotMsg{recording.Snapshot{LLM: llm.View{Editing: true}}})
	m = next.(tuiModel)
	if !m.editing {
		t.Fatal("snapshot with an open edit should enter editing")
	}

	m = press(m, runes("sk-"), runes("abc"), tea.KeyMsg{Type: tea.KeyBackspace}, runes("d"))
	// Keys typed while editing must not reach the normal bindings.
	if ctrl.settings.Model != config.DefaultModel {
		t.Errorf("model changed while editing: %q", ctrl.settings.Model)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if ctrl.committed == nil {
		t.Fatal("enter did not commit credentials")
	}
	if ctrl.committed.APIKey != "sk-abd" || ctrl.committed.Model != "gpt-4o-mini" {
		t.Errorf("committed = %+v", *ctrl.committed)
	}
}

func TestTUICredentialCancel(t *testing.T) {
	ctrl := newFakeControls()
	m := newTUIModel(ctrl, recording.Snapshot{})
	next, _ := m.Update(snapshotMsg{recording.Snapshot{LLM: llm.View{Editing: true}}})
	m = press(next.(tuiModel), tea.KeyMsg{Type: tea.KeyEsc})
	if !ctrl.cancelled {
		t.Error("esc did not cancel the edit")
	}

	next, _ = m.Update(snapshotMsg{recording.Snapshot{}})
	m = next.(tuiModel)
	if m.editing || m.keyInput != nil {
		t.Error("closed edit should clear the input")
	}
}

func TestTUIViewShowsTranscription(t *testing.T) {
	m := newTUIModel(newFakeControls(), recording.Snapshot{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(tuiModel)
	next, _ = m.Update(snapshotMsg{recording.Snapshot{
		Status:           recording.Copied,
		StatusText:       "Copied ✅",
		HasTranscription: true,
		Settings:         config.Defaults(),
	}})
	m = next.(tuiModel)
	m.snap.LastTranscription.Text = "hello world"
	m.snap.LastTranscription.LatencyMS = 120

	view := m.View()
	for _, want := range []string{"hello world", "[✓ copied]", "120ms", "Copied ✅"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNextWraps(t *testing.T) {
	if got := next(config.Models, "large"); got != "base" {
		t.Errorf("next(large) = %q, want base", got)
	}
	if got := next(config.Models, "custom"); got != "base" {
		t.Errorf("next(custom) = %q, want base", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, []string{""}},
		{"hello world", 20, []string{"hello world"}},
		{"hello world", 5, []string{"hello", "world"}},
		{"abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"一二三四五六", 4, []string{"一二三四", "五六"}},
		{"one\ntwo", 10, []string{"one", "two"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestTranscriptionMeta(t *testing.T) {
	got := transcriptionMeta(120, config.ModeTicket, true, true)
	if got != "120ms · Ticket · refined · model downloaded" {
		t.Errorf("meta = %q", got)
	}
}
