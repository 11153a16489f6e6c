package flash_test

import (
	"bytes"
	"testing"

	"ember/flash"
	"ember/flash/flashtest"
)

func TestSecurityRegisterBounds(t *testing.T) {
	d, _ := newInitialised(t, [3]byte{0xc8, 0x40, 0x17}) // registers 1..3, 1024 bytes

	buf := make([]byte, 4)
	if d.ReadSecurityRegister(0, 0, buf) {
		t.Fatal("register 0 accepted")
	}
	if d.ReadSecurityRegister(4, 0, buf) {
		t.Fatal("register 4 accepted")
	}
	if d.ReadSecurityRegister(1, 1021, buf) {
		t.Fatal("read past the block accepted")
	}
	if !d.ReadSecurityRegister(1, 1020, buf) {
		t.Fatal("read at the block end refused")
	}
	if d.EraseSecurityRegister(0) || d.LockSecurityRegister(9) {
		t.Fatal("out-of-range register accepted")
	}
}

func TestSecurityRegisterProgramReadGD(t *testing.T) {
	d, sim := newInitialised(t, [3]byte{0xc8, 0x40, 0x17})

	data := []byte{0x11, 0x22, 0x33, 0x44}
	d.WriteEnable()
	if !d.ProgramSecurityRegister(2, 0x10, data) {
		t.Fatal("program failed")
	}
	d.WaitWipFinish()

	got := make([]byte, 4)
	if !d.ReadSecurityRegister(2, 0x10, got) {
		t.Fatal("read failed")
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("readback: %x", got)
	}

	// The GD family reads with 48H and programs with 42H.
	if countOp(sim, 0x48) == 0 || countOp(sim, 0x42) == 0 {
		t.Fatalf("wrong opcode family: %x", sim.Opcodes())
	}
	if countOp(sim, 0x68) != 0 || countOp(sim, 0x62) != 0 {
		t.Fatalf("XMCB opcodes on a GD part: %x", sim.Opcodes())
	}

	d.WriteEnable()
	if !d.EraseSecurityRegister(2) {
		t.Fatal("erase failed")
	}
	d.WaitWipFinish()
	d.ReadSecurityRegister(2, 0x10, got)
	if !bytes.Equal(got, []byte{0xff, 0xff, 0xff, 0xff}) {
		t.Fatalf("erase left %x", got)
	}
}

func TestSecurityRegisterProgramReadXMCB(t *testing.T) {
	sim := flashtest.New([3]byte{0x20, 0x41, 0x16})
	d := flash.New(sim)
	d.Init()
	sim.ResetTrace()

	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x55, 0x66}
	d.WriteEnable()
	if !d.ProgramSecurityRegister(1, 0, data) {
		t.Fatal("program failed")
	}
	d.WaitWipFinish()

	// The 68H read path goes through the FIFO and can exceed 4 bytes.
	got := make([]byte, 6)
	if !d.ReadSecurityRegister(1, 0, got) {
		t.Fatal("read failed")
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("readback: %x", got)
	}

	if countOp(sim, 0x68) == 0 || countOp(sim, 0x62) == 0 {
		t.Fatalf("wrong opcode family: %x", sim.Opcodes())
	}
}

func TestSecurityRegisterLockGD(t *testing.T) {
	d, sim := newInitialised(t, [3]byte{0xc8, 0x40, 0x17})

	if d.IsSecurityRegisterLocked(2) {
		t.Fatal("fresh part reports locked")
	}
	if !d.LockSecurityRegister(2) {
		t.Fatal("lock failed")
	}
	if !d.IsSecurityRegisterLocked(2) || d.IsSecurityRegisterLocked(1) {
		t.Fatal("lock bit placement wrong")
	}
	if d.ReadSR()&0x1000 == 0 {
		t.Fatalf("LB2 not set: %#x", d.ReadSR())
	}

	// A locked register refuses programming.
	before := append([]byte(nil), sim.SecurityRegister(2)[:4]...)
	d.WriteEnable()
	d.ProgramSecurityRegister(2, 0, []byte{0x00, 0x00, 0x00, 0x00})
	if !bytes.Equal(sim.SecurityRegister(2)[:4], before) {
		t.Fatal("locked register was programmed")
	}

	// Unlock exists to verify the invariant the other way.
	if !d.UnlockSecurityRegister(2) || d.IsSecurityRegisterLocked(2) {
		t.Fatal("debug unlock failed")
	}
}

func TestSecurityRegisterLockXTX(t *testing.T) {
	sim := flashtest.New([3]byte{0x0b, 0x40, 0x15})
	d := flash.New(sim)
	d.Init()

	// One lock bit covers every register.
	if !d.LockSecurityRegister(1) {
		t.Fatal("lock failed")
	}
	if !d.IsSecurityRegisterLocked(3) {
		t.Fatal("XTX lock must cover all registers")
	}
	if d.ReadSR()&0x0400 == 0 {
		t.Fatalf("LB not set: %#x", d.ReadSR())
	}
}

func TestSecurityRegisterLockXMCB(t *testing.T) {
	sim := flashtest.New([3]byte{0x20, 0x41, 0x16})
	d := flash.New(sim)
	d.Init()
	sim.ResetTrace()

	if !d.LockSecurityRegister(1) {
		t.Fatal("lock failed")
	}
	if sim.FR()&(0x10<<1) == 0 {
		t.Fatalf("function register bit not set: %#x", sim.FR())
	}
	if !d.IsSecurityRegisterLocked(1) || d.IsSecurityRegisterLocked(2) {
		t.Fatal("lock bit placement wrong")
	}

	// The status register is untouched; locking goes through the
	// function register.
	if sim.SR() != 0x0040 {
		t.Fatalf("status register changed: %#x", sim.SR())
	}
}
