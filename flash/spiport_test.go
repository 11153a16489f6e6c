package flash_test

import (
	"bytes"
	"testing"

	"ember/flash"
)

// fakeSPI scripts RX bytes and records every TX frame while selected.
type fakeSPI struct {
	frames [][]byte
	rx     []byte
}

func (f *fakeSPI) Tx(w, r []byte) error {
	if len(w) > 0 {
		f.frames = append(f.frames, append([]byte(nil), w...))
	}
	if len(r) > 0 {
		n := copy(r, f.rx)
		f.rx = f.rx[n:]
	}
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) {
	f.frames = append(f.frames, []byte{b})
	return 0, nil
}

type fakePin struct {
	level   bool
	toggles int
}

func (p *fakePin) High() {
	if !p.level {
		p.toggles++
	}
	p.level = true
}

func (p *fakePin) Low() {
	if p.level {
		p.toggles++
	}
	p.level = false
}

func TestSPIPortFramesCommand(t *testing.T) {
	bus := &fakeSPI{rx: []byte{0xc8, 0x40, 0x17}}
	pin := &fakePin{}
	port := flash.NewSPIPort(bus, pin)

	rx := make([]byte, 3)
	flash.Cmd(port, flash.Command{Op: 0x9f}, nil, rx, flash.RxReadback)

	if !bytes.Equal(rx, []byte{0xc8, 0x40, 0x17}) {
		t.Fatalf("rx: %x", rx)
	}
	if len(bus.frames) != 1 || !bytes.Equal(bus.frames[0], []byte{0x9f}) {
		t.Fatalf("frames: %x", bus.frames)
	}
	if !pin.level {
		t.Fatal("chip select left asserted")
	}
}

func TestSPIPortAddressAndPayload(t *testing.T) {
	bus := &fakeSPI{}
	pin := &fakePin{}
	port := flash.NewSPIPort(bus, pin)

	flash.Cmd(port, flash.Command{Op: 0x02, Addr: 0x012345, HasAddr: true},
		[]byte{0xaa, 0xbb}, nil, 0)

	want := []byte{0x02, 0x01, 0x23, 0x45, 0xaa, 0xbb}
	if len(bus.frames) != 1 || !bytes.Equal(bus.frames[0], want) {
		t.Fatalf("frame: %x want %x", bus.frames, want)
	}
	if err := port.Err(); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestSPIPortReadData(t *testing.T) {
	bus := &fakeSPI{rx: []byte{9, 8, 7}}
	pin := &fakePin{}
	port := flash.NewSPIPort(bus, pin)

	got := make([]byte, 3)
	if err := port.ReadData(0x80, got); err != nil {
		t.Fatalf("ReadData: %v", err)
	}
	if !bytes.Equal(got, []byte{9, 8, 7}) {
		t.Fatalf("data: %x", got)
	}
	if !bytes.Equal(bus.frames[0], []byte{0x03, 0x00, 0x00, 0x80}) {
		t.Fatalf("frame: %x", bus.frames[0])
	}
	if !pin.level {
		t.Fatal("chip select left asserted")
	}
}
