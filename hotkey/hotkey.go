package hotkey

import "context"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Listen registers hk and calls trigger once per key press until ctx is
// done. Releases are drained and ignored.
func Listen(ctx context.Context, hk Hotkey, trigger func()) error {
	if err := hk.Register(); err != nil {
		return err
	}
	defer hk.Unregister()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hk.Keydown():
			trigger()
		case <-hk.Keyup():
		}
	}
}
