//go:build !linux && !darwin

package hotkey

import "golang.design/x/hotkey"

const Combo = "Ctrl+Shift+S"

var modifiers = []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}
