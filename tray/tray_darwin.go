//go:build darwin

package tray

import (
	"sync/atomic"

	"github.com/energye/systray"
	"golang.design/x/hotkey/mainthread"

	"whisperclip/config"
	"whisperclip/recording"
)

var (
	ready atomic.Bool

	mStatus    *systray.MenuItem
	mRecord    *systray.MenuItem
	mCopy      *systray.MenuItem
	mProvider  *systray.MenuItem
	mAction    *systray.MenuItem
	mRefine    *systray.MenuItem
	mCues      *systray.MenuItem
	mLoop      *systray.MenuItem
	mAutoPaste *systray.MenuItem
	mLogin     *systray.MenuItem

	modelItems    []*systray.MenuItem
	langItems     []*systray.MenuItem
	modeItems     []*systray.MenuItem
	providerItems []*systray.MenuItem
)

func Init() <-chan struct{} {
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	done := make(chan struct{})
	mainthread.Call(func() {
		start()
		close(done)
	})
	<-done
	return quitCh
}

func onReady() {
	a, snap, login := state()
	s := snap.Settings

	systray.SetTemplateIcon(iconIdleHi, iconIdle)
	systray.SetTooltip(tooltip(snap))

	mStatus = systray.AddMenuItem(snap.StatusText, "Current status")
	mStatus.Disable()

	mRecord = systray.AddMenuItem(recordTitle(snap.Status), "Start or stop recording")
	mRecord.Click(func() {
		if a, _, _ := state(); a.Toggle != nil {
			a.Toggle()
		}
	})

	mCopy = systray.AddMenuItem(copyTitle(snap), "Copy last transcription to clipboard")
	if !snap.HasTranscription {
		mCopy.Disable()
	}
	mCopy.Click(func() {
		if a, _, _ := state(); a.CopyLast != nil {
			a.CopyLast()
		}
	})

	systray.AddSeparator()

	mModel := systray.AddMenuItem("Model", "Speech model")
	modelItems = radio(mModel, config.Models, func(m string) string { return m }, s.Model, a.SetModel)

	mLanguage := systray.AddMenuItem("Language", "Transcription language")
	langItems = radio(mLanguage, config.Languages, languageLabel, s.Language, a.SetLanguage)

	mMode := systray.AddMenuItem("Workflow", "Refinement style")
	modeItems = radio(mMode, config.WorkflowModes, config.WorkflowMode.DisplayName, s.WorkflowMode, a.SetWorkflowMode)

	mRefine = toggle(systray.AddMenuItemCheckbox("Refine with LLM", "Refine transcriptions with the selected provider", s.RefineEnabled), a.SetRefine)

	systray.AddSeparator()

	mProvider = systray.AddMenuItem(providerTitle(snap), "Refinement provider")
	providerItems = radio(mProvider, config.Providers, providerLabel, s.LLMProvider, a.SetProvider)
	mRefresh := mProvider.AddSubMenuItem("Refresh Status", "Check the provider again")
	mRefresh.Click(func() {
		if a, _, _ := state(); a.RefreshProvider != nil {
			a.RefreshProvider()
		}
	})

	mAction = systray.AddMenuItem(snap.LLM.ActionTitle, "Run the provider action")
	mAction.Click(func() {
		if a, _, _ := state(); a.ProviderAction != nil {
			a.ProviderAction()
		}
	})
	updateAction(snap)

	systray.AddSeparator()

	mSettings := systray.AddMenuItem("Settings", "Settings")
	mCues = toggle(mSettings.AddSubMenuItemCheckbox("Sound Cues", "Play start, stop and done cues", s.SoundCues), a.SetSoundCues)
	mLoop = toggle(mSettings.AddSubMenuItemCheckbox("Transcribing Loop", "Play a loop while transcribing", s.TranscribingLoop), a.SetLoop)
	mAutoPaste = toggle(mSettings.AddSubMenuItemCheckbox("Auto-paste", "Paste into the focused window", s.AutoPaste), a.SetAutoPaste)
	mLogin = mSettings.AddSubMenuItemCheckbox("Start on Login", "Launch Whisper Clip when you log in", login)
	mLogin.Click(func() {
		a, _, _ := state()
		if a.SetLogin == nil {
			return
		}
		want := !mLogin.Checked()
		if err := a.SetLogin(want); err != nil {
			systray.SetTooltip("Whisper Clip: " + err.Error())
			return
		}
		setChecked(mLogin, want)
	})

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit Whisper Clip")
	mQuit.Click(func() { Quit() })
	systray.CreateMenu()

	ready.Store(true)
	_, snap, _ = state()
	render(snap)
}

// radio adds one checkbox per choice under parent and keeps exactly one
// checked. The returned items are in choice order.
func radio[T comparable](parent *systray.MenuItem, choices []T, label func(T) string, selected T, pick func(T)) []*systray.MenuItem {
	items := make([]*systray.MenuItem, 0, len(choices))
	for _, c := range choices {
		item := parent.AddSubMenuItemCheckbox(label(c), label(c), c == selected)
		item.Click(func() {
			if pick != nil {
				pick(c)
			}
		})
		items = append(items, item)
	}
	return items
}

func toggle(item *systray.MenuItem, set func(bool)) *systray.MenuItem {
	item.Click(func() {
		if set != nil {
			set(!item.Checked())
		}
	})
	return item
}

func setChecked(item *systray.MenuItem, on bool) {
	if item == nil {
		return
	}
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func checkOne[T comparable](items []*systray.MenuItem, choices []T, selected T) {
	for i, item := range items {
		if i < len(choices) {
			setChecked(item, choices[i] == selected)
		}
	}
}

func updateAction(snap recording.Snapshot) {
	if snap.LLM.ActionTitle == "" {
		mAction.Hide()
		return
	}
	mAction.SetTitle(snap.LLM.ActionTitle)
	mAction.Show()
	if snap.LLM.ActionAvailable && !snap.LLM.Busy {
		mAction.Enable()
	} else {
		mAction.Disable()
	}
}

func render(snap recording.Snapshot) {
	if !ready.Load() {
		return
	}
	s := snap.Settings

	switch snap.Status {
	case recording.Recording:
		systray.SetIcon(iconRecHi)
	case recording.Transcribing:
		systray.SetIcon(iconBusyHi)
	default:
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
	}
	systray.SetTooltip(tooltip(snap))

	mStatus.SetTitle(snap.StatusText)
	mRecord.SetTitle(recordTitle(snap.Status))
	if snap.Status == recording.Transcribing {
		mRecord.Disable()
	} else {
		mRecord.Enable()
	}
	mCopy.SetTitle(copyTitle(snap))
	if snap.HasTranscription {
		mCopy.Enable()
	}

	checkOne(modelItems, config.Models, s.Model)
	checkOne(langItems, config.Languages, s.Language)
	checkOne(modeItems, config.WorkflowModes, s.WorkflowMode)
	checkOne(providerItems, config.Providers, s.LLMProvider)
	setChecked(mRefine, s.RefineEnabled)
	setChecked(mCues, s.SoundCues)
	setChecked(mLoop, s.TranscribingLoop)
	setChecked(mAutoPaste, s.AutoPaste)

	mProvider.SetTitle(providerTitle(snap))
	updateAction(snap)
}

func onExit() {
	Quit()
}
