package notify

import (
	"github.com/gen2brain/beeep"

	"whisperclip/log"
)

// Notifier posts a user-visible desktop notification. Delivery is best
// effort: failures are logged and never reach the caller.
type Notifier interface {
	Notify(title, body string)
}

const AppName = "Whisper Clip"

type desktop struct{}

func New() Notifier {
	beeep.AppName = AppName
	return desktop{}
}

func (desktop) Notify(title, body string) {
	if err := beeep.Notify(title, body, ""); err != nil {
		log.Warnf("notification failed: %v", err)
	}
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(string, string) {}
