package apu

import "testing"

func TestAPU_NR10RegisterRoundTrip(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF10, 0x2B) // sweep period 2, negate, shift 3
	if got := a.CPURead(0xFF10); got != 0xAB {
		t.Fatalf("NR10 got %02X want AB", got)
	}
}

func TestAPU_NR52PowerOffResetsChannels(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0) // CH1 envelope with DAC on
	a.CPUWrite(0xFF14, 0x80) // trigger CH1
	if !a.ch1.enabled {
		t.Fatalf("expected CH1 enabled after trigger")
	}
	a.CPUWrite(0xFF26, 0x00) // power off
	if a.ch1.enabled {
		t.Fatalf("expected CH1 disabled after NR52 power-off")
	}
	if a.enabled {
		t.Fatalf("expected APU disabled after NR52 power-off")
	}
}

func TestAPU_TickAdvancesSquareChannelPhase(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF11, 0x80) // duty 2
	a.CPUWrite(0xFF12, 0xF0) // DAC on, max volume
	a.CPUWrite(0xFF13, 0xFF) // freq lo
	a.CPUWrite(0xFF14, 0x87) // freq hi + trigger
	startPhase := a.ch1.phase
	a.Tick(1000)
	if a.ch1.phase == startPhase {
		t.Fatalf("expected CH1 phase to advance after ticking")
	}
}

func TestAPU_PullStereoDrainsBufferedFrames(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0)
	a.CPUWrite(0xFF14, 0x87)
	a.Tick(cpuHz / 100) // roughly 10ms worth of cycles
	if a.StereoAvailable() == 0 {
		t.Fatalf("expected buffered stereo frames after ticking")
	}
	frames := a.PullStereo(8)
	if len(frames) == 0 || len(frames)%2 != 0 {
		t.Fatalf("expected a non-empty, even-length interleaved stereo slice, got %d", len(frames))
	}
}
