//go:build linux

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"whisperclip/log"
)

var (
	cueStereo  map[Cue][]int16
	loopStereo []int16
	soundOnce  sync.Once
)

func initSound() {
	// 200ms tail for PA buffer fill
	cueStereo = make(map[Cue][]int16)
	for cue, s := range cueSamples(0.17) {
		cueStereo[cue] = stereo(s)
	}
	loopStereo = stereo(generateLoop())
}

// stereo interleaves mono samples to match the output sink format.
func stereo(mono []int16) []int16 {
	out := make([]int16, len(mono)*2)
	for i, s := range mono {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

type pulsePlayer struct {
	mu   sync.Mutex
	loop *atomic.Bool
}

func NewPlayer() Player {
	return &pulsePlayer{}
}

func Init() {
	soundOnce.Do(initSound)
}

func (p *pulsePlayer) Play(c Cue) {
	soundOnce.Do(initSound)
	samples := cueStereo[c]
	go playStream(func(buf []int16, pos *int) (int, error) {
		if *pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[*pos:])
		*pos += n
		return n, nil
	})
}

func (p *pulsePlayer) StartLoop() {
	soundOnce.Do(initSound)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loop != nil {
		return
	}
	stop := &atomic.Bool{}
	p.loop = stop
	samples := loopStereo
	go playStream(func(buf []int16, pos *int) (int, error) {
		if stop.Load() {
			return 0, pulse.EndOfData
		}
		n := 0
		for n < len(buf) {
			k := copy(buf[n:], samples[*pos:])
			n += k
			*pos = (*pos + k) % len(samples)
		}
		return n, nil
	})
}

func (p *pulsePlayer) StopLoop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loop != nil {
		p.loop.Store(true)
		p.loop = nil
	}
}

// playStream opens a playback stream fed by fill and blocks until fill
// reports the end of data and the buffer has drained.
func playStream(fill func(buf []int16, pos *int) (int, error)) {
	c, err := pulse.NewClient()
	if err != nil {
		log.Warnf("pulse playback error: %v", err)
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		return fill(buf, &pos)
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		log.Warnf("pulse playback error: %v", err)
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}
