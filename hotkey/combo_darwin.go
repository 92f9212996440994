//go:build darwin

package hotkey

import "golang.design/x/hotkey"

const Combo = "Cmd+Option+S"

var modifiers = []hotkey.Modifier{hotkey.ModCmd, hotkey.ModOption}
