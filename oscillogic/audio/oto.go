//go:build oto

package audio

import (
	"encoding/binary"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

// PlaybackAvailable reports whether this build can play audio.
const PlaybackAvailable = true

// Player streams samples from a Provider to the default audio device.
type Player struct {
	ctx      *oto.Context
	player   *oto.Player
	provider Provider
	mu       sync.Mutex
	started  bool
}

// NewPlayer opens the audio device for mono 16-bit playback at sampleRate.
func NewPlayer(sampleRate int, provider Provider) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "open audio device")
	}
	<-ready

	p := &Player{ctx: ctx, provider: provider}
	p.player = ctx.NewPlayer(p)
	return p, nil
}

// Read feeds the device. It is called from oto's goroutine.
func (p *Player) Read(buf []byte) (int, error) {
	samples := p.provider.GetSamples(len(buf) / 2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return 2 * len(samples), nil
}

func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		p.player.Play()
		p.started = true
	}
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = false
	return p.player.Close()
}
