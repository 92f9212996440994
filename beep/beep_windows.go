//go:build windows

package beep

// No audio playback on Windows - cues and the loop are silent.

type silentPlayer struct{}

func NewPlayer() Player { return silentPlayer{} }

func Init() {}

func (silentPlayer) Play(Cue)   {}
func (silentPlayer) StartLoop() {}
func (silentPlayer) StopLoop()  {}
