// Package presentation implements the ebiten-based host: it translates
// keyboard state into the core's ButtonState, renders the core's
// framebuffer through a selectable DMG palette, and streams PCM audio via
// ebiten/audio. None of this is part of the core contract (§6); it's the
// "poll_input/present/audio_sink" collaborator the core consumes (the ROM
// is read by cmd/gbemu and handed to system.New).
package presentation

import (
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/arrankleinschmidt/gbcore/internal/cart"
	"github.com/arrankleinschmidt/gbcore/internal/system"
)

const (
	screenW = 160
	screenH = 144
)

// App runs a *system.System on its own goroutine (so emulation speed isn't
// coupled to ebiten's vsync-paced Update/Draw calls) and implements
// system.Host by exchanging state with that goroutine under a mutex.
type App struct {
	cfg Config
	sys *system.System

	mu      sync.Mutex
	buttons system.ButtonState
	frame   [screenH][screenW]byte
	paused  bool

	palette   Palette
	paletteID int

	tex *ebiten.Image

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioStream *audioStream
	audioMuted  bool

	done chan struct{}
	runE error

	toastMsg   string
	toastUntil time.Time
}

// NewApp wires an App to a constructed System. If the cartridge header can
// be parsed, its title/checksum seed an auto-selected compat palette.
func NewApp(cfg Config, sys *system.System, header *cart.Header) *App {
	cfg.Defaults()
	if cfg.AutoPalette && header != nil {
		cfg.PaletteID = AutoPaletteID(header)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(screenW*cfg.Scale, screenH*cfg.Scale)

	a := &App{
		cfg:         cfg,
		sys:         sys,
		paletteID:   cfg.PaletteID,
		palette:     PaletteByID(cfg.PaletteID),
		done:        make(chan struct{}),
		audioCtx:    audio.NewContext(48000),
		audioMuted:  true,
		audioStream: newAudioStream(!cfg.AudioStereo, nil),
	}
	a.audioStream.muted = &a.audioMuted
	return a
}

// Run starts the emulation goroutine and blocks in ebiten's game loop until
// the window closes or the core halts on a fatal error (e.g. UnknownOpcode).
func (a *App) Run() error {
	go func() {
		a.runE = a.sys.RunUntilQuit(a)
		close(a.done)
	}()
	if err := ebiten.RunGame(a); err != nil {
		return err
	}
	a.sys.RequestQuit()
	<-a.done
	return a.runE
}

// PollInput implements system.Host.
func (a *App) PollInput() system.ButtonState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buttons
}

// Present implements system.Host.
func (a *App) Present(frame [screenH][screenW]byte) {
	a.mu.Lock()
	a.frame = frame
	a.mu.Unlock()
}

// AudioSink implements system.Host.
func (a *App) AudioSink(samples []int16) {
	a.audioStream.push(samples)
}

func (a *App) Update() error {
	select {
	case <-a.done:
		return a.runE
	default:
	}

	if a.audioPlayer == nil {
		if p, err := a.audioCtx.NewPlayer(a.audioStream); err == nil {
			a.audioPlayer = p
			a.audioPlayer.SetBufferSize(time.Duration(a.cfg.AudioBufferMs) * time.Millisecond)
			a.audioPlayer.Play()
		}
	}

	var btn system.ButtonState
	if !a.paused {
		btn = system.ButtonState{
			Right:  ebiten.IsKeyPressed(ebiten.KeyRight),
			Left:   ebiten.IsKeyPressed(ebiten.KeyLeft),
			Up:     ebiten.IsKeyPressed(ebiten.KeyUp),
			Down:   ebiten.IsKeyPressed(ebiten.KeyDown),
			A:      ebiten.IsKeyPressed(ebiten.KeyZ),
			B:      ebiten.IsKeyPressed(ebiten.KeyX),
			Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
			Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
		}
	}
	a.mu.Lock()
	a.buttons = btn
	a.mu.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
		a.audioMuted = a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		a.paletteID = (a.paletteID + 1) % PaletteCount()
		a.palette = PaletteByID(a.paletteID)
		a.cfg.PaletteID = a.paletteID
		a.cfg.Save()
		a.toast(fmt.Sprintf("Palette %d", a.paletteID))
	}
	if a.audioMuted && !a.paused {
		a.audioMuted = false
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(screenW, screenH)
	}
	a.mu.Lock()
	frame := a.frame
	a.mu.Unlock()

	pix := make([]byte, screenW*screenH*4)
	for y := 0; y < screenH; y++ {
		for x := 0; x < screenW; x++ {
			c := a.palette[frame[y][x]&0x03]
			i := (y*screenW + x) * 4
			pix[i+0], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	a.tex.WritePixels(pix)
	screen.DrawImage(a.tex, nil)

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 4)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return screenW, screenH }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}
