//go:build !darwin

package clipboard

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const (
	PasteShortcut = "Ctrl+V"
	// uinput devices on Linux are not usable until udev has seen them.
	settleDelay = 200 * time.Millisecond
)

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}
