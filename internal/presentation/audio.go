package presentation

import (
	"encoding/binary"
	"sync"
)

// audioStream implements io.Reader by draining interleaved stereo int16
// samples pushed from the System's tick loop via App.AudioSink, converting
// them to the little-endian byte stream ebiten's audio.Player expects.
// Synthesis fidelity is the core's concern (§9); this is just plumbing.
type audioStream struct {
	mu     sync.Mutex
	buf    []int16 // interleaved L,R,...
	mono   bool
	muted  *bool
	closed bool
}

func newAudioStream(mono bool, muted *bool) *audioStream {
	return &audioStream{mono: mono, muted: muted}
}

// push appends freshly produced samples, trimming the buffer so an idle or
// paused host doesn't accumulate audio indefinitely.
func (s *audioStream) push(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, samples...)
	const maxBuffered = 48000 * 2 // ~1s of stereo frames, a generous cap
	if len(s.buf) > maxBuffered {
		s.buf = s.buf[len(s.buf)-maxBuffered:]
	}
}

func (s *audioStream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	if s.muted != nil && *s.muted {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wantFrames := len(p) / 4
	haveFrames := len(s.buf) / 2
	n := wantFrames
	if haveFrames < n {
		n = haveFrames
	}

	i := 0
	for f := 0; f < n; f++ {
		l := s.buf[f*2]
		r := s.buf[f*2+1]
		if s.mono {
			m := int16((int32(l) + int32(r)) / 2)
			l, r = m, m
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(l))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(r))
		i += 4
	}
	s.buf = s.buf[n*2:]
	for ; i+3 < len(p); i += 4 {
		binary.LittleEndian.PutUint16(p[i:], 0)
		binary.LittleEndian.PutUint16(p[i+2:], 0)
	}
	return len(p), nil
}
