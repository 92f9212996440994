package llm

import (
	"context"
	"errors"
	"fmt"

	"whisperclip/config"
	"whisperclip/worker"
)

// Backend is the worker surface used by providers that need a process check.
type Backend interface {
	ProviderStatus(ctx context.Context, provider config.ProviderID) (worker.ProviderState, error)
	ProviderLogin(ctx context.Context, provider config.ProviderID) (worker.ProviderState, error)
}

// ErrNoBackend is returned by process-backed providers when no worker
// backend was configured.
var ErrNoBackend = errors.New("no provider backend")

// Status is a provider's readiness as last derived.
type Status struct {
	Installed     bool
	Authenticated bool
	Text          string
}

// Env is what a provider may touch while checking or acting.
type Env struct {
	Backend             Backend
	Credentials         config.Credentials
	BeginCredentialEdit func()
}

// Provider is one refinement backend variant.
type Provider interface {
	ID() config.ProviderID
	DisplayName() string
	// ActionTitle is empty when the provider has no action.
	ActionTitle() string
	// NeedsProcess reports whether CheckStatus and PerformAction spawn a
	// worker process and so must run off the caller's goroutine.
	NeedsProcess() bool
	// SendsCredentials reports whether stop requests carry the stored
	// cloud credentials.
	SendsCredentials() bool
	CheckStatus(ctx context.Context, env Env) (Status, error)
	ActionAvailable(st Status) bool
	PerformAction(ctx context.Context, env Env) (Status, error)
}

var registry = map[config.ProviderID]Provider{
	config.ProviderCodexCLI:    codexCLI{},
	config.ProviderOpenAIAPI:   openAI{},
	config.ProviderAzureOpenAI: placeholder{},
}

// Lookup returns the provider for id, falling back to the Codex CLI.
func Lookup(id config.ProviderID) Provider {
	if p, ok := registry[id]; ok {
		return p
	}
	return registry[config.ProviderCodexCLI]
}

// All returns every provider in menu order.
func All() []Provider {
	out := make([]Provider, 0, len(config.Providers))
	for _, id := range config.Providers {
		out = append(out, registry[id])
	}
	return out
}

type codexCLI struct{}

func (codexCLI) ID() config.ProviderID  { return config.ProviderCodexCLI }
func (codexCLI) DisplayName() string    { return "Pure Chat Mode (Codex CLI)" }
func (codexCLI) ActionTitle() string    { return "Codex Login" }
func (codexCLI) NeedsProcess() bool     { return true }
func (codexCLI) SendsCredentials() bool { return false }

func (p codexCLI) CheckStatus(ctx context.Context, env Env) (Status, error) {
	if env.Backend == nil {
		return Status{}, ErrNoBackend
	}
	st, err := env.Backend.ProviderStatus(ctx, p.ID())
	if err != nil {
		return Status{}, err
	}
	return codexStatus(st), nil
}

func (codexCLI) ActionAvailable(st Status) bool { return st.Installed }

func (p codexCLI) PerformAction(ctx context.Context, env Env) (Status, error) {
	if env.Backend == nil {
		return Status{}, ErrNoBackend
	}
	st, err := env.Backend.ProviderLogin(ctx, p.ID())
	if err != nil {
		return Status{}, err
	}
	return codexStatus(st), nil
}

func codexStatus(st worker.ProviderState) Status {
	out := Status{Installed: st.Installed, Authenticated: st.Authenticated}
	switch {
	case !st.Installed:
		out.Text = "Codex CLI not installed"
	case !st.Authenticated:
		out.Text = "Codex CLI not logged in"
	default:
		out.Text = "Codex CLI ready"
	}
	if st.Message != "" {
		out.Text += ": " + st.Message
	}
	return out
}

type openAI struct{}

func (openAI) ID() config.ProviderID  { return config.ProviderOpenAIAPI }
func (openAI) DisplayName() string    { return "OpenAI API (ChatGPT)" }
func (openAI) ActionTitle() string    { return "Set API Credentials" }
func (openAI) NeedsProcess() bool     { return false }
func (openAI) SendsCredentials() bool { return true }

func (openAI) CheckStatus(_ context.Context, env Env) (Status, error) {
	if !env.Credentials.Present() {
		return Status{Text: "OpenAI API key not set"}, nil
	}
	model := env.Credentials.Model
	if model == "" {
		model = config.DefaultOpenAIModel
	}
	return Status{
		Installed:     true,
		Authenticated: true,
		Text:          fmt.Sprintf("OpenAI API configured (%s)", model),
	}, nil
}

func (openAI) ActionAvailable(Status) bool { return true }

func (p openAI) PerformAction(ctx context.Context, env Env) (Status, error) {
	if env.BeginCredentialEdit != nil {
		env.BeginCredentialEdit()
	}
	return p.CheckStatus(ctx, env)
}

// placeholder is listed so the setting round-trips, but it cannot refine.
type placeholder struct{}

func (placeholder) ID() config.ProviderID  { return config.ProviderAzureOpenAI }
func (placeholder) DisplayName() string    { return "Azure OpenAI (Placeholder)" }
func (placeholder) ActionTitle() string    { return "" }
func (placeholder) NeedsProcess() bool     { return false }
func (placeholder) SendsCredentials() bool { return false }

func (placeholder) CheckStatus(context.Context, Env) (Status, error) {
	return Status{Text: "Azure OpenAI is a placeholder and not usable yet"}, nil
}

func (placeholder) ActionAvailable(Status) bool { return false }

func (p placeholder) PerformAction(ctx context.Context, env Env) (Status, error) {
	return p.CheckStatus(ctx, env)
}
