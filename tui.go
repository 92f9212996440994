package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"whisperclip/config"
	"whisperclip/hotkey"
	"whisperclip/recording"
)

// TUI message types
type snapshotMsg struct{ snap recording.Snapshot }
type noticeMsg struct{ text string }
type tickMsg time.Time

// controls is the part of the recording machine the TUI drives.
type controls interface {
	Toggle()
	CopyLastTranscription() error
	Settings() config.Settings
	SetModel(string)
	SetLanguage(string)
	SetWorkflowMode(config.WorkflowMode)
	SetLLMProvider(config.ProviderID)
	SetRefineEnabled(bool)
	SetSoundCues(bool)
	SetTranscribingLoop(bool)
	SetAutoPaste(bool)
	RunProviderAction() bool
	RefreshLLMStatus()
	CancelCredentialEdit()
	CommitCredentialEdit(config.Credentials) error
	CredentialDraft() (config.Credentials, bool)
}

type tuiModel struct {
	ctrl          controls
	snap          recording.Snapshot
	frame         int
	width, height int
	notice        string
	editing       bool
	keyInput      []rune
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(11)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	copiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func newTUIModel(ctrl controls, snap recording.Snapshot) tuiModel {
	return tuiModel{ctrl: ctrl, snap: snap}
}

func NewTUIProgram(ctrl controls, snap recording.Snapshot) *tea.Program {
	return tea.NewProgram(newTUIModel(ctrl, snap), tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case snapshotMsg:
		m.snap = msg.snap
		switch {
		case msg.snap.LLM.Editing && !m.editing:
			m.editing = true
			draft, _ := m.ctrl.CredentialDraft()
			m.keyInput = []rune(draft.APIKey)
		case !msg.snap.LLM.Editing:
			m.editing = false
			m.keyInput = nil
		}

	case noticeMsg:
		m.notice = msg.text

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m tuiModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.ctrl.Settings()
	m.notice = ""

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ", "enter":
		m.ctrl.Toggle()
	case "c":
		if err := m.ctrl.CopyLastTranscription(); err != nil {
			m.notice = err.Error()
		}
	case "m":
		m.ctrl.SetModel(next(config.Models, s.Model))
	case "l":
		m.ctrl.SetLanguage(next(config.Languages, s.Language))
	case "w":
		m.ctrl.SetWorkflowMode(next(config.WorkflowModes, s.WorkflowMode))
	case "p":
		m.ctrl.SetLLMProvider(next(config.Providers, s.LLMProvider))
	case "f":
		m.ctrl.SetRefineEnabled(!s.RefineEnabled)
	case "s":
		m.ctrl.SetSoundCues(!s.SoundCues)
	case "o":
		m.ctrl.SetTranscribingLoop(!s.TranscribingLoop)
	case "t":
		m.ctrl.SetAutoPaste(!s.AutoPaste)
	case "a":
		if !m.ctrl.RunProviderAction() {
			m.notice = "No provider action available"
		}
	case "r":
		m.ctrl.RefreshLLMStatus()
	}
	return m, nil
}

func (m tuiModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.ctrl.CancelCredentialEdit()
	case tea.KeyEnter:
		draft, _ := m.ctrl.CredentialDraft()
		draft.APIKey = string(m.keyInput)
		if err := m.ctrl.CommitCredentialEdit(draft); err != nil {
			m.notice = err.Error()
		}
	case tea.KeyBackspace:
		if len(m.keyInput) > 0 {
			m.keyInput = m.keyInput[:len(m.keyInput)-1]
		}
	case tea.KeyCtrlU:
		m.keyInput = nil
	case tea.KeyRunes:
		m.keyInput = append(m.keyInput, msg.Runes...)
	}
	return m, nil
}

// next returns the choice after cur, wrapping around. Unknown values start
// over at the first choice.
func next[T comparable](choices []T, cur T) T {
	for i, c := range choices {
		if c == cur {
			return choices[(i+1)%len(choices)]
		}
	}
	return choices[0]
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const leftWidth = 44
	left := m.renderControls()

	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	right := m.renderTranscription(rightWidth - 2)

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(left)
	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func (m tuiModel) spinner() string {
	return spinnerFrames[m.frame%len(spinnerFrames)]
}

func (m tuiModel) statusLine() string {
	snap := m.snap
	switch snap.Status {
	case recording.Recording:
		return errorStyle.Bold(true).Render("● " + snap.StatusText)
	case recording.Transcribing:
		return busyStyle.Render(m.spinner() + " " + snap.StatusText)
	case recording.Copied:
		return copiedStyle.Render(snap.StatusText)
	case recording.Failed:
		return errorStyle.Render(snap.StatusText)
	}
	if snap.WarmingUp {
		return dimStyle.Render(m.spinner() + " " + snap.StatusText)
	}
	return dimStyle.Render("○ " + snap.StatusText)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (m tuiModel) renderControls() string {
	s := m.snap.Settings
	v := m.snap.LLM
	var lines []string

	lines = append(lines, titleStyle.Render("Whisper Clip"), "")
	lines = append(lines, m.statusLine(), "")

	row := func(label, value string) {
		lines = append(lines, labelStyle.Render(label)+valueStyle.Render(value))
	}
	row("model", s.Model)
	row("language", s.Language)
	row("workflow", s.WorkflowMode.DisplayName())
	row("refine", onOff(s.RefineEnabled))
	row("cues", onOff(s.SoundCues))
	row("loop", onOff(s.TranscribingLoop))
	row("autopaste", onOff(s.AutoPaste))
	lines = append(lines, "")

	lines = append(lines, valueStyle.Render(v.DisplayName))
	status := v.StatusText
	if v.Busy {
		status = m.spinner() + " " + status
	}
	lines = append(lines, dimStyle.Render(status))

	if m.editing {
		masked := strings.Repeat("•", len(m.keyInput))
		lines = append(lines, "", valueStyle.Render("API key: "+masked+"▌"))
		lines = append(lines, helpStyle.Render("enter save · esc cancel · ctrl+u clear"))
	}

	if m.notice != "" {
		lines = append(lines, "", busyStyle.Render(m.notice))
	}

	lines = append(lines, "")
	help := [][2]string{
		{"space", "record"}, {"c", "copy last"}, {"q", "quit"},
		{"m", "model"}, {"l", "language"}, {"w", "workflow"},
		{"f", "refine"}, {"p", "provider"}, {"r", "refresh"},
		{"s", "cues"}, {"o", "loop"}, {"t", "autopaste"},
	}
	if v.ActionTitle != "" {
		help = append(help, [2]string{"a", strings.ToLower(v.ActionTitle)})
	}
	for i := 0; i < len(help); i += 3 {
		var parts []string
		for _, h := range help[i:min(i+3, len(help))] {
			parts = append(parts, helpKey.Render(h[0])+helpStyle.Render(" "+h[1]))
		}
		lines = append(lines, strings.Join(parts, helpStyle.Render("  ")))
	}
	lines = append(lines, "")
	lines = append(lines, helpKey.Render(hotkey.Combo)+helpStyle.Render(" to record"))
	lines = append(lines, helpStyle.Render("whisperclip "+version))

	return strings.Join(lines, "\n")
}

func (m tuiModel) renderTranscription(wrapWidth int) string {
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	var b strings.Builder
	snap := m.snap

	if snap.Status == recording.Failed && snap.LastError != "" {
		b.WriteString(errorStyle.Render("Last error") + "\n\n")
		for _, line := range wrapText(snap.LastError, wrapWidth) {
			b.WriteString(errorStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}

	if !snap.HasTranscription {
		b.WriteString(dimStyle.Render("No transcriptions yet"))
		return b.String()
	}

	res := snap.LastTranscription
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Render("Last transcription") + "\n\n")
	lines := wrapText(res.Text, wrapWidth)
	for i, line := range lines {
		b.WriteString(textStyle.Render(line))
		if i == len(lines)-1 && snap.Status == recording.Copied {
			b.WriteString(" " + copiedStyle.Render("[✓ copied]"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + dimStyle.Render(transcriptionMeta(res.LatencyMS, res.WorkflowMode, res.Refined, res.ModelDownloaded)))
	return b.String()
}

func transcriptionMeta(latencyMS int, mode config.WorkflowMode, refined, downloaded bool) string {
	parts := []string{fmt.Sprintf("%dms", latencyMS), mode.DisplayName()}
	if refined {
		parts = append(parts, "refined")
	}
	if downloaded {
		parts = append(parts, "model downloaded")
	}
	return strings.Join(parts, " · ")
}

// wrapText breaks text at spaces so no line exceeds width runes. Words
// longer than width are split.
func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		r := []rune(para)
		for len(r) > width {
			splitAt := width
			for i := width; i > 0; i-- {
				if r[i] == ' ' {
					splitAt = i
					break
				}
			}
			lines = append(lines, string(r[:splitAt]))
			r = []rune(strings.TrimLeft(string(r[splitAt:]), " "))
		}
		lines = append(lines, string(r))
	}
	return lines
}
