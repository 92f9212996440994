// Package config holds the persisted user settings and the on-disk locations
// the controller works with.
package config

import (
	"time"
)

// WorkflowMode selects the refinement style applied by the worker.
type WorkflowMode string

const (
	ModeNormal   WorkflowMode = "normal"
	ModeEmail    WorkflowMode = "email"
	ModeWorkChat WorkflowMode = "work_chat"
	ModeTicket   WorkflowMode = "ticket"
)

var WorkflowModes = []WorkflowMode{ModeNormal, ModeEmail, ModeWorkChat, ModeTicket}

// ParseWorkflowMode maps a wire value to a mode. Unknown values fall back
// to ModeNormal.
func ParseWorkflowMode(s string) WorkflowMode {
	for _, m := range WorkflowModes {
		if string(m) == s {
			return m
		}
	}
	return ModeNormal
}

func (m WorkflowMode) DisplayName() string {
	switch m {
	case ModeEmail:
		return "Email Dictation"
	case ModeWorkChat:
		return "Work Chat"
	case ModeTicket:
		return "Ticket"
	default:
		return "Normal"
	}
}

// ProviderID names a refinement provider variant.
type ProviderID string

const (
	ProviderCodexCLI    ProviderID = "codex_cli"
	ProviderOpenAIAPI   ProviderID = "openai_api"
	ProviderAzureOpenAI ProviderID = "azure_openai"
)

var Providers = []ProviderID{ProviderCodexCLI, ProviderOpenAIAPI, ProviderAzureOpenAI}

// Credentials are the locally held secrets for the cloud API provider.
type Credentials struct {
	APIKey string `toml:"openai_api_key"`
	Model  string `toml:"openai_model"`
}

func (c Credentials) Present() bool { return c.APIKey != "" }

type Settings struct {
	AutoPaste        bool         `toml:"auto_paste"`
	Model            string       `toml:"model"`
	Language         string       `toml:"language"`
	SoundCues        bool         `toml:"sound_cues"`
	TranscribingLoop bool         `toml:"transcribing_loop"`
	RefineEnabled    bool         `toml:"refine_enabled"`
	WorkflowMode     WorkflowMode `toml:"workflow_mode"`
	LLMProvider      ProviderID   `toml:"llm_provider"`
	Credentials
	WorkerTimeout Duration `toml:"worker_timeout"`
}

// Models and Languages are the choices offered by the host surface. Other
// values are passed through to the worker unchanged.
var (
	Models    = []string{"base", "small", "medium", "large"}
	Languages = []string{"auto", "en", "zh", "ja"}
)

const (
	DefaultModel       = "small"
	DefaultLanguage    = "auto"
	DefaultOpenAIModel = "gpt-4o-mini"
)

func Defaults() Settings {
	return Settings{
		Model:            DefaultModel,
		Language:         DefaultLanguage,
		SoundCues:        true,
		TranscribingLoop: true,
		WorkflowMode:     ModeNormal,
		LLMProvider:      ProviderCodexCLI,
		Credentials:      Credentials{Model: DefaultOpenAIModel},
	}
}

// Normalize fills empty or unknown values with defaults.
func (s Settings) Normalize() Settings {
	d := Defaults()
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.Language == "" {
		s.Language = d.Language
	}
	s.WorkflowMode = ParseWorkflowMode(string(s.WorkflowMode))
	known := false
	for _, p := range Providers {
		if s.LLMProvider == p {
			known = true
		}
	}
	if !known {
		s.LLMProvider = d.LLMProvider
	}
	if s.Credentials.Model == "" {
		s.Credentials.Model = d.Credentials.Model
	}
	if s.WorkerTimeout < 0 {
		s.WorkerTimeout = 0
	}
	return s
}

// Duration is a time.Duration stored as a string ("30s") in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
