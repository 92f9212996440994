package recording

import (
	"whisperclip/config"
	"whisperclip/log"
)

// update applies fn to the settings, persists the result and notifies
// observers. It reports the settings before and after the change.
func (m *Machine) update(fn func(*config.Settings)) (before, after config.Settings) {
	m.mu.Lock()
	before = m.settings
	next := m.settings
	fn(&next)
	next = next.Normalize()
	m.settings = next
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Save(next); err != nil {
			log.Errorf("settings save failed: %v", err)
		}
	}
	m.changed()
	return before, next
}

func (m *Machine) SetAutoPaste(on bool) {
	m.update(func(s *config.Settings) { s.AutoPaste = on })
}

func (m *Machine) SetLanguage(lang string) {
	m.update(func(s *config.Settings) { s.Language = lang })
}

// SetModel switches the speech model and warms the new one up.
func (m *Machine) SetModel(model string) {
	before, after := m.update(func(s *config.Settings) { s.Model = model })
	if before.Model != after.Model {
		log.Info("model_changed: " + after.Model)
		m.warm.WarmUp(after.Model)
	}
}

func (m *Machine) SetSoundCues(on bool) {
	_, s := m.update(func(s *config.Settings) { s.SoundCues = on })
	m.sounds.SetEnabled(s.SoundCues, s.TranscribingLoop)
}

func (m *Machine) SetTranscribingLoop(on bool) {
	_, s := m.update(func(s *config.Settings) { s.TranscribingLoop = on })
	m.sounds.SetEnabled(s.SoundCues, s.TranscribingLoop)
}

func (m *Machine) SetRefineEnabled(on bool) {
	m.update(func(s *config.Settings) { s.RefineEnabled = on })
}

func (m *Machine) SetWorkflowMode(mode config.WorkflowMode) {
	m.update(func(s *config.Settings) { s.WorkflowMode = mode })
}

// SetLLMProvider switches the refinement provider and re-derives its
// status right away.
func (m *Machine) SetLLMProvider(id config.ProviderID) {
	_, s := m.update(func(s *config.Settings) { s.LLMProvider = id })
	m.llm.Select(s.LLMProvider)
}

// LoopPlaying reports whether the transcribing loop is currently sounding.
func (m *Machine) LoopPlaying() bool {
	return m.sounds.Looping()
}

func (m *Machine) saveCredentials(c config.Credentials) error {
	m.mu.Lock()
	next := m.settings
	next.Credentials = c
	next = next.Normalize()
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Save(next); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.settings.Credentials = next.Credentials
	m.mu.Unlock()
	m.changed()
	return nil
}
