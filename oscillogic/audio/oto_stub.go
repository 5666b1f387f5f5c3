//go:build !oto

package audio

import "github.com/pkg/errors"

// PlaybackAvailable reports whether this build can play audio.
const PlaybackAvailable = false

var ErrPlaybackUnavailable = errors.New("audio playback not compiled in, rebuild with -tags oto")

// Player is a stub used when the binary is built without the oto tag.
type Player struct{}

func NewPlayer(sampleRate int, provider Provider) (*Player, error) {
	return nil, ErrPlaybackUnavailable
}

func (p *Player) Start() {}

func (p *Player) Close() error { return nil }
