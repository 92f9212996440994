//go:build !darwin

package tray

import "whisperclip/recording"

func Init() <-chan struct{} { return quitCh }

func render(recording.Snapshot) {}
