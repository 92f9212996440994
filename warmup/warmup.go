// Package warmup prefetches the speech model in the background so the first
// transcription does not pay for the download. It is best effort: the stop
// workflow repeats the same check with real error handling.
package warmup

import (
	"context"
	"fmt"
	"sync"

	"whisperclip/log"
)

// ModelCache is the slice of the worker client warm-up needs.
type ModelCache interface {
	ProbeModelReady(ctx context.Context, model string) (bool, error)
	FetchModel(ctx context.Context, model string) (bool, error)
}

// Outcome is the result of the latest warm-up.
type Outcome struct {
	Model      string
	Ready      bool
	Downloaded bool
	Err        error
}

type Callbacks struct {
	// Progress receives a status line while a download is under way and
	// an empty string once the task finishes.
	Progress func(model, text string)
	Done     func(Outcome)
}

type Controller struct {
	cache ModelCache
	cb    Callbacks

	mu     sync.Mutex
	gen    uint64
	active bool
	last   *Outcome

	// emit serializes callbacks with their generation check so a
	// superseded task never reports after a newer one.
	emit sync.Mutex
}

func New(cache ModelCache, cb Callbacks) *Controller {
	return &Controller{cache: cache, cb: cb}
}

// WarmUp starts a warm-up for model and supersedes any task in flight.
// A superseded task's worker process still runs to completion, but nothing
// it produces is applied.
func (c *Controller) WarmUp(model string) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.active = true
	c.mu.Unlock()

	log.Info("warmup_start: " + model)
	go c.run(gen, model)
}

// Cancel discards interest in the task in flight.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.gen++
	c.active = false
	c.mu.Unlock()
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Last returns the most recent applied outcome.
func (c *Controller) Last() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Outcome{}, false
	}
	return *c.last, true
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Controller) run(gen uint64, model string) {
	ctx := context.Background()
	out := Outcome{Model: model}

	ready, err := c.cache.ProbeModelReady(ctx, model)
	if err != nil {
		out.Err = fmt.Errorf("probe %s: %w", model, err)
		c.finish(gen, out)
		return
	}
	if ready {
		out.Ready = true
		c.finish(gen, out)
		return
	}
	if !c.current(gen) {
		return
	}

	c.progress(gen, model, fmt.Sprintf("Downloading model %s…", model))
	downloaded, err := c.cache.FetchModel(ctx, model)
	if err != nil {
		out.Err = fmt.Errorf("fetch %s: %w", model, err)
	} else {
		out.Ready = true
		out.Downloaded = downloaded
	}
	c.finish(gen, out)
}

func (c *Controller) progress(gen uint64, model, text string) {
	c.emit.Lock()
	defer c.emit.Unlock()
	if !c.current(gen) || c.cb.Progress == nil {
		return
	}
	c.cb.Progress(model, text)
}

func (c *Controller) finish(gen uint64, out Outcome) {
	c.emit.Lock()
	defer c.emit.Unlock()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		log.Info("warmup_superseded: " + out.Model)
		return
	}
	c.active = false
	c.last = &out
	c.mu.Unlock()

	if out.Err != nil {
		log.Warnf("warmup failed: %v", out.Err)
	} else {
		log.Infof("warmup_done: model=%s downloaded=%v", out.Model, out.Downloaded)
	}
	if c.cb.Progress != nil {
		c.cb.Progress(out.Model, "")
	}
	if c.cb.Done != nil {
		c.cb.Done(out)
	}
}
