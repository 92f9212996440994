package beep

import (
	"sync"

	"whisperclip/log"
)

// Controller gates cue playback on the user's settings and keeps the
// transcribing loop in step with the recording status. The loop plays
// exactly while transcribing, sound cues and the loop setting are all on.
type Controller struct {
	player Player

	mu           sync.Mutex
	cues         bool
	loop         bool
	transcribing bool
	looping      bool
}

func NewController(p Player, cues, loop bool) *Controller {
	return &Controller{player: p, cues: cues, loop: loop}
}

func (c *Controller) Play(cue Cue) {
	c.mu.Lock()
	enabled := c.cues
	c.mu.Unlock()
	if enabled {
		c.player.Play(cue)
	}
}

// SetEnabled applies new settings. A loop already wanted or no longer
// wanted starts or stops right away.
func (c *Controller) SetEnabled(cues, loop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cues, c.loop = cues, loop
	c.reconcileLocked()
}

// SetTranscribing must be called on every transition into and out of the
// transcribing status.
func (c *Controller) SetTranscribing(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcribing = on
	c.reconcileLocked()
}

func (c *Controller) Looping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.looping
}

func (c *Controller) reconcileLocked() {
	want := c.transcribing && c.cues && c.loop
	if want == c.looping {
		return
	}
	c.looping = want
	if want {
		log.Info("loop_start")
		c.player.StartLoop()
	} else {
		log.Info("loop_stop")
		c.player.StopLoop()
	}
}
