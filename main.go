package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/term"

	"whisperclip/beep"
	"whisperclip/clipboard"
	"whisperclip/config"
	"whisperclip/doctor"
	"whisperclip/hotkey"
	"whisperclip/log"
	"whisperclip/login"
	"whisperclip/notify"
	"whisperclip/recording"
	"whisperclip/shutdown"
	"whisperclip/tray"
	"whisperclip/worker"
)

var version = "dev"

const bgEnv = "WHISPER_CLIP_BG"

var (
	machine      *recording.Machine
	shutdownOnce sync.Once
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if machine != nil {
			machine.Close()
		}
		log.Close()
		tray.Quit()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func run() {
	configFlag := flag.String("config", "", "settings file path (default: OS config dir, or WHISPER_CLIP_CONFIG)")
	autoPasteFlag := flag.Bool("autopaste", false, "Auto-paste to focused window after transcription (overrides settings)")
	modelFlag := flag.String("model", "", "Speech model: base, small, medium or large (overrides settings)")
	langFlag := flag.String("lang", "", "Language code, e.g. en or auto (overrides settings)")
	timeoutFlag := flag.Duration("timeout", 0, "Per-call worker timeout, 0 waits indefinitely (overrides settings)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("whisperclip %s\n", version)
		os.Exit(0)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	settingsPath, err := config.ResolvePath(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store := config.NewStore(settingsPath)
	settings, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		settings = config.Defaults()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "autopaste":
			settings.AutoPaste = *autoPasteFlag
		case "model":
			settings.Model = *modelFlag
		case "lang":
			settings.Language = *langFlag
		case "timeout":
			settings.WorkerTimeout = config.Duration(*timeoutFlag)
		}
	})
	settings = settings.Normalize()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	stateDir, err := config.StateDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	stderr := log.StderrWriter()
	client := worker.New(worker.Options{
		StateDir: stateDir,
		Timeout:  time.Duration(settings.WorkerTimeout),
		Stderr:   stderr,
	})

	if *doctorFlag {
		code := doctor.Run(doctor.Options{
			Settings:    settings,
			Client:      client,
			Interactive: term.IsTerminal(int(os.Stdin.Fd())),
		})
		stderr.Flush()
		log.Close()
		os.Exit(code)
	}

	interactive := *tuiFlag && term.IsTerminal(int(os.Stdout.Fd()))

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !interactive && os.Getenv(bgEnv) == "" && term.IsTerminal(int(os.Stdout.Fd())) {
		exe, _ := os.Executable()
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), bgEnv+"=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if settings.AutoPaste {
		if err := clipboard.Init(); err != nil {
			log.Warnf("paste init failed: %v", err)
			if interactive {
				fmt.Printf("Warning: paste init failed: %v\n", err)
			}
		}
	}
	go beep.Init()

	machine = recording.New(recording.Options{
		Settings:  settings,
		Store:     store,
		Worker:    client,
		Clipboard: clipboard.System{},
		Paster:    clipboard.System{},
		Notifier:  notify.New(),
		Player:    beep.NewPlayer(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pump := newSnapshotPump()
	machine.Subscribe(pump.Observe)
	sinks := []func(recording.Snapshot){tray.Update}
	if interactive {
		sinks = append(sinks, func(s recording.Snapshot) { tuiSend(snapshotMsg{s}) })
	}
	go pump.Run(ctx, sinks...)

	machine.Start()
	tray.Update(machine.Snapshot())

	if interactive {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(machine, machine.Snapshot())
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()
	}

	tray.SetLogin(login.Enabled())
	tray.SetActions(tray.Actions{
		Toggle:          machine.Toggle,
		CopyLast:        copyLast,
		SetModel:        machine.SetModel,
		SetLanguage:     machine.SetLanguage,
		SetWorkflowMode: machine.SetWorkflowMode,
		SetRefine:       machine.SetRefineEnabled,
		SetProvider:     machine.SetLLMProvider,
		ProviderAction:  func() { machine.RunProviderAction() },
		RefreshProvider: machine.RefreshLLMStatus,
		SetSoundCues:    machine.SetSoundCues,
		SetLoop:         machine.SetTranscribingLoop,
		SetAutoPaste:    machine.SetAutoPaste,
		SetLogin:        setLogin,
	})
	trayQuit := tray.Init()

	go func() {
		hk := hotkey.New()
		err := hotkey.Listen(ctx, hk, func() {
			log.Info("hotkey_press")
			machine.Toggle()
		})
		if err != nil {
			log.Errorf("hotkey register error: %v", err)
			msg := fmt.Sprintf("Hotkey %s unavailable: %v", hotkey.Combo, err)
			if interactive {
				tuiSend(noticeMsg{msg})
			} else {
				fmt.Fprintln(os.Stderr, msg)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	shutdown.Notify(sigCh)
	select {
	case <-sigCh:
	case <-trayQuit:
	}
	cancel()
	gracefulShutdown()
}

func copyLast() {
	if err := machine.CopyLastTranscription(); err != nil {
		log.Errorf("copy_last failed: %v", err)
		tuiSend(noticeMsg{err.Error()})
	}
}

func setLogin(on bool) error {
	if on {
		return login.Enable()
	}
	return login.Disable()
}
