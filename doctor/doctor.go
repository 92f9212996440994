package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"whisperclip/config"
	"whisperclip/hotkey"
	"whisperclip/llm"
	"whisperclip/worker"
)

const (
	checkTimeout  = 2 * time.Minute
	hotkeyTimeout = 10 * time.Second
)

type Options struct {
	Settings config.Settings
	Client   *worker.Client
	// Interactive enables checks that need a person at the keyboard.
	Interactive bool
}

// Run executes diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("whisperclip doctor - system diagnostics")
	fmt.Println("=======================================")

	checks := []func(Options) bool{
		checkWorker,
		checkStateDir,
		checkModel,
		checkProvider,
		checkHotkey,
		checkClipboard,
	}

	allPass := true
	for i, check := range checks {
		fmt.Println()
		fmt.Printf("[%d/%d] ", i+1, len(checks))
		if !check(opts) {
			allPass = false
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkWorker(Options) bool {
	fmt.Println("Worker interpreter")

	loc := worker.Resolve()
	fmt.Printf("  python:     %s\n", loc.Python)
	fmt.Printf("  root:       %s\n", loc.Root)
	fmt.Printf("  PYTHONPATH: %s\n", loc.PythonPath)

	if err := loc.Check(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  Set WHISPER_CLIP_PYTHON or create .venv in the project root")
		return false
	}
	if _, err := os.Stat(loc.PythonPath); err != nil {
		fmt.Printf("  WARN: backend directory not found: %v\n", err)
	}
	fmt.Println("  PASS: interpreter found")
	return true
}

func checkStateDir(opts Options) bool {
	fmt.Println("State directory")

	dir := opts.Client.StateDir()
	info, err := os.Stat(dir)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if !info.IsDir() {
		fmt.Printf("  FAIL: %s is not a directory\n", dir)
		return false
	}
	fmt.Printf("  PASS: %s\n", dir)
	return true
}

func checkModel(opts Options) bool {
	fmt.Println("Speech model")

	model := opts.Settings.Model
	if opts.Interactive {
		cursor := 0
		for i, m := range config.Models {
			if m == model {
				cursor = i
			}
		}
		idx, err := pick("Select model to check (↑/↓, Enter to confirm):", config.Models, cursor)
		if err != nil {
			fmt.Printf("  WARN: %v, checking %s\n", err, model)
		} else {
			model = config.Models[idx]
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	start := time.Now()
	ready, err := opts.Client.ProbeModelReady(ctx, model)
	if err != nil {
		fmt.Printf("  FAIL: probe %s: %v\n", model, describe(err))
		return false
	}
	if ready {
		fmt.Printf("  PASS: %s is cached (%s)\n", model, time.Since(start).Round(time.Millisecond))
		return true
	}

	fmt.Printf("  %s is not cached, downloading...\n", model)
	if _, err := opts.Client.FetchModel(ctx, model); err != nil {
		fmt.Printf("  FAIL: fetch %s: %v\n", model, describe(err))
		return false
	}
	fmt.Printf("  PASS: %s downloaded (%s)\n", model, time.Since(start).Round(time.Second))
	return true
}

func checkProvider(opts Options) bool {
	p := llm.Lookup(opts.Settings.LLMProvider)
	fmt.Printf("Refinement provider: %s\n", p.DisplayName())

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	st, err := p.CheckStatus(ctx, llm.Env{Backend: opts.Client, Credentials: opts.Settings.Credentials})
	if err != nil {
		fmt.Printf("  FAIL: %v\n", describe(err))
		return false
	}
	usable := st.Authenticated
	switch {
	case usable:
		fmt.Printf("  PASS: %s\n", st.Text)
		return true
	case !opts.Settings.RefineEnabled:
		fmt.Printf("  WARN: %s (refinement is off)\n", st.Text)
		return true
	default:
		fmt.Printf("  FAIL: %s\n", st.Text)
		if title := p.ActionTitle(); title != "" {
			fmt.Printf("  Fix with: %s\n", title)
		}
		return false
	}
}

func checkHotkey(opts Options) bool {
	fmt.Println("Hotkey detection")

	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if !opts.Interactive {
		fmt.Printf("  PASS: %s (press test skipped, not a terminal)\n", msg)
		return true
	}

	fmt.Printf("Press %s...\n", hotkey.Combo)
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// The hotkey may leave the terminal in raw mode.
		resetTerminal()
		return true
	case <-time.After(hotkeyTimeout):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func describe(err error) string {
	var werr *worker.Error
	if errors.As(err, &werr) && werr.Kind == worker.ErrInvalidResponse {
		return "worker returned no structured response (run with -logpath and check diagnostics_log.txt)"
	}
	return err.Error()
}
