package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// System is the desktop clipboard and paste keystroke.
type System struct{}

func (System) Copy(text string) error { return Copy(text) }
func (System) Paste() error           { return Paste() }
