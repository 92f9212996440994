package beep

import "math"

// Cue is a one-shot sound tied to a lifecycle event.
type Cue int

const (
	CueStart Cue = iota
	CueStop
	CueComplete
)

func (c Cue) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueStop:
		return "stop"
	case CueComplete:
		return "complete"
	}
	return "unknown"
}

// Player renders cues and the transcribing loop. Implementations return
// immediately; playback happens in the background.
type Player interface {
	Play(c Cue)
	StartLoop()
	StopLoop()
}

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop beep: medium pitch, slightly longer
	stopFreq   = 900
	stopVolume = 0.5
	stopDecay  = 40

	// Complete: rising double beep
	completeFreq   = 1500
	completeVolume = 0.45
	completeDecay  = 45

	// Loop: quiet low tick followed by a pause, repeated
	loopFreq    = 600
	loopVolume  = 0.18
	loopDecay   = 35
	loopTickDur = 0.08
	loopPeriod  = 0.9
)

func generateTick(freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range n {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(freq, beepDur, gapDur, volume, decay float64) []int16 {
	first := generateTick(freq, beepDur, volume, decay)
	second := generateTick(freq*1.25, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(first)+len(gap)+len(second))
	result = append(result, first...)
	result = append(result, gap...)
	result = append(result, second...)
	return result
}

// generateLoop returns one period of the transcribing loop: a tick padded
// with silence. Playing it back to back gives an evenly spaced pulse.
func generateLoop() []int16 {
	tick := generateTick(loopFreq, loopTickDur, loopVolume, loopDecay)
	period := make([]int16, int(float64(sampleRate)*loopPeriod))
	copy(period, tick)
	return period
}

// cueSamples returns mono samples for each cue. tail pads the end with
// silence for backends that need a buffer fill.
func cueSamples(tail float64) map[Cue][]int16 {
	pad := func(s []int16) []int16 {
		return append(s, make([]int16, int(float64(sampleRate)*tail))...)
	}
	return map[Cue][]int16{
		CueStart:    pad(generateTick(startFreq, 0.03, startVolume, startDecay)),
		CueStop:     pad(generateTick(stopFreq, 0.05, stopVolume, stopDecay)),
		CueComplete: pad(generateDoubleBeep(completeFreq, 0.06, 0.04, completeVolume, completeDecay)),
	}
}
