//go:build darwin

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"whisperclip/log"
)

var (
	malgoCtx  *malgo.AllocatedContext
	device    *malgo.Device
	cueMono   map[Cue][]int16
	loopMono  []int16
	soundOnce sync.Once

	// Playback state, read from the device callback
	shot     atomic.Pointer[[]int16]
	shotPos  atomic.Uint32
	looping  atomic.Bool
	loopPos  atomic.Uint32
	deviceMu sync.Mutex
)

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: dataCallback,
	}

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, callbacks)
	return err
}

func initSound() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Warnf("malgo init error: %v", err)
		return
	}

	cueMono = cueSamples(0)
	loopMono = generateLoop()

	if err := initDevice(); err != nil {
		log.Warnf("malgo device error: %v", err)
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

// dataCallback mixes the current one-shot cue with the loop so a cue never
// cuts the loop off and the loop never swallows a cue.
func dataCallback(pOutput, _ []byte, frameCount uint32) {
	var samples []int16
	cur := shot.Load()
	if cur != nil {
		samples = *cur
	}
	pos := shotPos.Load()
	loopOn := looping.Load()
	lpos := loopPos.Load()

	for i := uint32(0); i < frameCount; i++ {
		var mixed int32
		if int(pos) < len(samples) {
			mixed += int32(samples[pos])
			pos++
		}
		if loopOn && len(loopMono) > 0 {
			mixed += int32(loopMono[lpos])
			lpos = (lpos + 1) % uint32(len(loopMono))
		}
		mixed = max(min(mixed, 32767), -32768)
		pOutput[i*2] = byte(mixed)
		pOutput[i*2+1] = byte(mixed >> 8)
	}

	if cur != nil && int(pos) >= len(samples) {
		shot.CompareAndSwap(cur, nil)
	}
	shotPos.Store(pos)
	loopPos.Store(lpos)
}

// ensureRunning starts the device, recreating it if a start fails
// (macOS sleep/wake invalidates it).
func ensureRunning() bool {
	deviceMu.Lock()
	defer deviceMu.Unlock()

	if malgoCtx == nil || device == nil {
		return false
	}
	if device.IsStarted() {
		return true
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		if err := initDevice(); err != nil {
			log.Warnf("malgo device error: %v", err)
			return false
		}
		if err := device.Start(); err != nil {
			log.Warnf("malgo start error: %v", err)
			return false
		}
	}
	return true
}

type malgoPlayer struct{}

func NewPlayer() Player {
	return malgoPlayer{}
}

func Init() {
	soundOnce.Do(initSound)
}

func (malgoPlayer) Play(c Cue) {
	soundOnce.Do(initSound)
	samples := cueMono[c]
	if len(samples) == 0 {
		return
	}
	shotPos.Store(0)
	shot.Store(&samples)
	ensureRunning()
}

func (malgoPlayer) StartLoop() {
	soundOnce.Do(initSound)
	loopPos.Store(0)
	looping.Store(true)
	ensureRunning()
}

func (malgoPlayer) StopLoop() {
	looping.Store(false)
}
