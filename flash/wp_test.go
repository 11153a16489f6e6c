package flash_test

import (
	"testing"

	"ember/flash"
	"ember/flash/flashtest"
)

func TestWpRangeGD8M(t *testing.T) {
	d, _ := newInitialised(t, [3]byte{0xc8, 0x40, 0x17}) // 8 MiB, GD mapping

	cases := []struct {
		offset uint32
		max    uint32
	}{
		// The granted prefix is the largest table threshold at or below
		// the access offset.
		{0, 0},
		{4096, 4096},
		{4097, 4096},
		{8192, 8192},
		{4<<20 + 1, 4 << 20},
		{6 << 20, 6 << 20},
		{8<<20 - 1, (8 << 20) - (8<<20)/64},
	}
	for _, c := range cases {
		r := d.WpRange(c.offset, 1)
		if r.Min != 0 {
			t.Errorf("WpRange(%#x).Min = %#x", c.offset, r.Min)
		}
		if r.Max != c.max {
			t.Errorf("WpRange(%#x).Max = %#x, want %#x", c.offset, r.Max, c.max)
		}
	}
}

func TestWpRangeGDOtherCapacities(t *testing.T) {
	// Thresholds scale with capacity; spot-check half-chip boundaries.
	for _, c := range []struct {
		capBits byte
		offset  uint32
		max     uint32
	}{
		{0x14, 1 << 19, 1 << 19}, // 1 MiB part, half
		{0x15, 1 << 20, 1 << 20}, // 2 MiB part, half
		{0x16, 1 << 21, 1 << 21}, // 4 MiB part, half
		{0x18, 1 << 23, 1 << 23}, // 16 MiB part, half
	} {
		d, _ := newInitialised(t, [3]byte{0xc8, 0x40, c.capBits})
		if r := d.WpRange(c.offset, 1); r.Max != c.max {
			t.Errorf("cap 2^%d: WpRange(%#x).Max = %#x, want %#x",
				c.capBits, c.offset, r.Max, c.max)
		}
	}
}

func TestWpRangeXMCA(t *testing.T) {
	sim, d := newXMCA(t)
	_ = sim

	// 4 MiB part: one table unit is 32 KiB.
	cases := []struct {
		offset uint32
		max    uint32
	}{
		{0, 0},
		{32 * 1024, 32 * 1024},
		{32*1024 + 1, 32 * 1024},
		{2<<20 + 1, 2 << 20},
		{4<<20 - 1, (4 << 20) - (4<<20)/128},
	}
	for _, c := range cases {
		if r := d.WpRange(c.offset, 1); r.Max != c.max {
			t.Errorf("WpRange(%#x).Max = %#x, want %#x", c.offset, r.Max, c.max)
		}
	}
}

func TestPrepareOpensExactlyTheTablePrefix(t *testing.T) {
	d, sim := newInitialised(t, [3]byte{0xc8, 0x40, 0x17})

	// Writing at 6 MiB leaves the 6 MiB prefix protected (3/4 entry).
	d.PrepareEraseProgram(6<<20, 4096)
	if sr := sim.SR(); sr&0x407c != 0x4060 {
		t.Fatalf("expected 3/4 protection bits, got %#x", sr)
	}
	d.FinishEraseProgram()
	if sr := sim.SR(); sr&0x407c != 0x007c {
		t.Fatalf("protect-all not restored: %#x", sr)
	}
}

func TestPrepareXMCAUsesSR1(t *testing.T) {
	sim, d := newXMCA(t)

	d.PrepareEraseProgram(0, 4096)
	if sr := uint8(sim.SR()); sr&0x3c != 0 {
		t.Fatalf("XMCA protection not lifted: %#x", sr)
	}
	d.FinishEraseProgram()
	if sr := uint8(sim.SR()); sr&0x3c != 0x3c {
		t.Fatalf("XMCA protect-all not restored: %#x", sr)
	}
}

func TestPrepareWithoutVolatileSRLeavesStatusAlone(t *testing.T) {
	// The vendor fallback entry for GD has no volatile SR support;
	// prepare must only send write enable.
	d, sim := newInitialised(t, [3]byte{0xc8, 0x77, 0x15})

	before := sim.SR()
	d.PrepareEraseProgram(0, 4096)
	if countOp(sim, 0x50) != 0 {
		t.Fatal("volatile prelude without volatile SR support")
	}
	if sr := sim.SR(); sr&0x407c != before&0x407c {
		t.Fatalf("protection changed: %#x -> %#x", before, sr)
	}
}

func newXMCA(t *testing.T) (*flashtest.Sim, *flash.Device) {
	t.Helper()
	sim := flashtest.New([3]byte{0x20, 0x36, 0x16})
	d := flash.New(sim)
	d.Init()
	sim.ResetTrace()
	return sim, d
}
