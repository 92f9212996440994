// Package tray is the menu bar surface. It mirrors the recording machine's
// snapshot into menu items and forwards clicks back as actions.
package tray

import (
	"fmt"
	"sync"

	"whisperclip/config"
	"whisperclip/llm"
	"whisperclip/recording"
)

// Actions are invoked from menu clicks. Nil entries are skipped.
type Actions struct {
	Toggle          func()
	CopyLast        func()
	SetModel        func(string)
	SetLanguage     func(string)
	SetWorkflowMode func(config.WorkflowMode)
	SetRefine       func(bool)
	SetProvider     func(config.ProviderID)
	ProviderAction  func()
	RefreshProvider func()
	SetSoundCues    func(bool)
	SetLoop         func(bool)
	SetAutoPaste    func(bool)
	SetLogin        func(bool) error
}

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	mu      sync.Mutex
	actions Actions
	current recording.Snapshot
	loginOn bool
)

func SetActions(a Actions) {
	mu.Lock()
	actions = a
	mu.Unlock()
}

func SetLogin(on bool) {
	mu.Lock()
	loginOn = on
	mu.Unlock()
}

// Update records the latest snapshot and refreshes the menu if it is up.
func Update(snap recording.Snapshot) {
	mu.Lock()
	current = snap
	mu.Unlock()
	render(snap)
}

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}

func state() (Actions, recording.Snapshot, bool) {
	mu.Lock()
	defer mu.Unlock()
	return actions, current, loginOn
}

func recordTitle(s recording.Status) string {
	switch s {
	case recording.Recording:
		return "Stop Recording"
	case recording.Transcribing:
		return "Transcribing…"
	default:
		return "Start Recording"
	}
}

func tooltip(snap recording.Snapshot) string {
	if snap.Status == recording.Failed && snap.LastError != "" {
		return "Whisper Clip: " + snap.LastError
	}
	return "Whisper Clip: " + snap.StatusText
}

func copyTitle(snap recording.Snapshot) string {
	if !snap.HasTranscription {
		return "Copy Last Transcription"
	}
	return fmt.Sprintf("Copy Last Transcription (%dms)", snap.LastTranscription.LatencyMS)
}

func languageLabel(code string) string {
	switch code {
	case "auto":
		return "Auto-detect"
	case "en":
		return "English"
	case "zh":
		return "Chinese"
	case "ja":
		return "Japanese"
	}
	return code
}

func providerTitle(snap recording.Snapshot) string {
	v := snap.LLM
	if v.StatusText == "" {
		return v.DisplayName
	}
	return v.DisplayName + ": " + v.StatusText
}

func providerLabel(id config.ProviderID) string {
	return llm.Lookup(id).DisplayName()
}
