package recording

import (
	"whisperclip/config"
	"whisperclip/llm"
	"whisperclip/worker"
)

type Status int

const (
	Idle Status = iota
	Recording
	Transcribing
	Copied
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case Copied:
		return "copied"
	case Failed:
		return "failed"
	}
	return "unknown"
}

const (
	textIdle         = "Idle"
	textRecording    = "Recording…"
	textTranscribing = "Transcribing…"
	textCopied       = "Copied ✅"
	textFailed       = "Failed ❌"
)

const (
	notifyTitle       = "Whisper Clip"
	notifyFailedTitle = "Whisper Clip Failed"
	notifyCopiedBody  = "Transcription copied to clipboard"
)

// Snapshot is the observable state handed to the host surface.
type Snapshot struct {
	Status            Status
	StatusText        string
	LastTranscription worker.TranscriptionResult
	HasTranscription  bool
	LastError         string
	WarmingUp         bool
	Settings          config.Settings
	LLM               llm.View
}

// Observer is called after every observable change. It runs on the
// goroutine that made the change and must not block.
type Observer func(Snapshot)
