//go:build !windows

package doctor

import "os/exec"

// resetTerminal undoes any raw mode left behind by the picker or a hotkey
// backend.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
