//go:build darwin

package clipboard

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const (
	PasteShortcut               = "Cmd+V"
	settleDelay   time.Duration = 0
)

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasSuper(true)
}
