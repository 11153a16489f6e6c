package flash

import (
	"encoding/binary"

	"ember/osi"
)

// Delays after power-state commands, in microseconds. Both are above the
// datasheet minimum for every supported part.
const (
	delayAfterReleaseDeepPowerDownUS = 30
	delayAfterResetUS                = 100
)

// Device describes one SPI NOR flash part bound to a controller port. The
// capability fields are populated from the property table by Init; they may
// be inspected but not changed afterwards.
type Device struct {
	port Port

	mid           uint32
	capacity      uint32
	sregBlockSize uint16
	typ           Type
	wpType        WpType
	uidType       UidType
	cpidType      CpidType
	sregMinNum    uint8
	sregMaxNum    uint8

	volatileSR    bool
	suspend       bool
	sfdp          bool
	writeSR12Flag bool
	hasSR2        bool
	hasSUS1       bool
	hasSUS2       bool
}

// New binds a device to a controller port. Init must run before any other
// operation.
func New(port Port) *Device {
	return &Device{port: port}
}

// Mid returns the observed JEDEC ID.
func (d *Device) Mid() uint32 { return d.mid }

// Capacity returns the part capacity in bytes.
func (d *Device) Capacity() uint32 { return d.capacity }

// Type returns the vendor command family.
func (d *Device) Type() Type { return d.typ }

// WpKind returns the write-protect mapping scheme.
func (d *Device) WpKind() WpType { return d.wpType }

// SregBlockSize returns the security register block size, 0 when security
// registers are unsupported.
func (d *Device) SregBlockSize() uint16 { return d.sregBlockSize }

// Port returns the bound controller port.
func (d *Device) Port() Port { return d.port }

// RDID: 9FH
func (d *Device) readID() uint32 {
	return cmdOnlyReadback(d.port, 0x9f, 3)
}

// WriteEnable sends WREN: 06H.
func (d *Device) WriteEnable() {
	cmdOnlyNoRx(d.port, Command{Op: 0x06})
}

// WriteDisable sends WRDI: 04H.
func (d *Device) WriteDisable() {
	cmdOnlyNoRx(d.port, Command{Op: 0x04})
}

// ResetEnable sends 66H.
func (d *Device) ResetEnable() {
	cmdOnlyNoRx(d.port, Command{Op: 0x66})
}

// Reset sends 99H. Callers delay afterwards; see the status check routines.
func (d *Device) Reset() {
	cmdOnlyNoRx(d.port, Command{Op: 0x99})
}

// PageProgram sends PP: 02H. data must fit the controller TX FIFO and stay
// within one page. Write enable and wait-for-finish are the caller's
// responsibility, so several operations can batch under one
// prepare/finish envelope.
func (d *Device) PageProgram(offset uint32, data []byte) {
	cmdNoRx(d.port, Command{Op: 0x02, Addr: offset, HasAddr: true}, data)
}

// SE: 20H, 4K sector
func (d *Device) erase4K(offset uint32) {
	cmdOnlyNoRx(d.port, Command{Op: 0x20, Addr: offset, HasAddr: true})
}

// BE: 52H, 32K block
func (d *Device) erase32K(offset uint32) {
	cmdOnlyNoRx(d.port, Command{Op: 0x52, Addr: offset, HasAddr: true})
}

// BE: D8H, 64K block
func (d *Device) erase64K(offset uint32) {
	cmdOnlyNoRx(d.port, Command{Op: 0xd8, Addr: offset, HasAddr: true})
}

// Erase erases one 4K, 32K or 64K unit; offset must be size aligned. As
// with PageProgram, only the command is emitted.
func (d *Device) Erase(offset, size uint32) {
	switch size {
	case size64K:
		d.erase64K(offset)
	case size32K:
		d.erase32K(offset)
	default:
		d.erase4K(offset)
	}
}

// ChipErase sends CE: C7H.
func (d *Device) ChipErase() {
	cmdOnlyNoRx(d.port, Command{Op: 0xc7})
}

// ProgramSuspend sends 75H.
func (d *Device) ProgramSuspend() {
	cmdOnlyNoRx(d.port, Command{Op: 0x75})
}

// EraseSuspend sends 75H.
func (d *Device) EraseSuspend() {
	cmdOnlyNoRx(d.port, Command{Op: 0x75})
}

// ProgramResume sends 7AH.
func (d *Device) ProgramResume() {
	cmdOnlyNoRx(d.port, Command{Op: 0x7a})
}

// EraseResume sends 7AH.
func (d *Device) EraseResume() {
	cmdOnlyNoRx(d.port, Command{Op: 0x7a})
}

// DeepPowerDown sends PD: B9H.
func (d *Device) DeepPowerDown() {
	cmdOnlyNoRx(d.port, Command{Op: 0xb9})
}

// ReleaseDeepPowerDown sends RDI: ABH and delays until the part is
// accessible again.
func (d *Device) ReleaseDeepPowerDown() {
	cmdOnlyNoRx(d.port, Command{Op: 0xab})
	osi.DelayUS(delayAfterReleaseDeepPowerDownUS)
}

// ReadSFDP reads the Serial Flash Discoverable Parameters table: 5AH. It
// returns false when the part does not expose SFDP.
func (d *Device) ReadSFDP(address uint32, data []byte) bool {
	if !d.sfdp {
		return false
	}
	a := addrBytes(address)
	tx := []byte{a[0], a[1], a[2], 0}
	cmdRxFifo(d.port, 0x5a, tx, data)
	return true
}

// ReadUniqueID reads the part's unique ID into uid and returns its length,
// or 0 when unsupported. uid must be at least 16 bytes.
func (d *Device) ReadUniqueID(uid []byte) int {
	switch d.uidType {
	case Uid4BH8:
		cmdRxFifo(d.port, 0x4b, make([]byte, 4), uid[:8])
		return 8

	case Uid4BH16:
		cmdRxFifo(d.port, 0x4b, make([]byte, 4), uid[:16])
		return 16

	case UidSFDP80H12:
		d.ReadSFDP(0x80, uid[:12])
		return 12

	case UidSFDP194H16:
		d.ReadSFDP(0x194, uid[:16])
		return 16

	case UidSFDP94H16:
		d.ReadSFDP(0x94, uid[:16])
		return 16
	}
	return 0
}

// ReadCpID reads the chip package ID, or 0 when unsupported.
func (d *Device) ReadCpID() uint16 {
	if d.cpidType == Cpid4BH {
		var buf [18]byte
		cmdRxFifo(d.port, 0x4b, make([]byte, 4), buf[:])
		return binary.LittleEndian.Uint16(buf[16:18])
	}
	return 0
}

// GD family: reset out of any stuck WEL/WIP/suspend state, then require QE
// and, with GD write protection, protect-all.
func (d *Device) statusCheckGD() {
	sr := d.ReadSR()
	needResetMask := srWEL | srWIP
	if d.hasSUS1 {
		needResetMask |= gdSRSUS1
	}
	if d.hasSUS2 {
		needResetMask |= gdSRSUS2
	}
	if sr&needResetMask != 0 {
		d.ResetEnable()
		d.Reset()
		osi.DelayUS(delayAfterResetUS)
		sr = d.ReadSR()
	}

	srNeeded := sr | gdSRQE
	if d.wpType == WpGD {
		srNeeded = d.statusWpAllGD(srNeeded)
	}
	if sr != srNeeded {
		d.WriteSR(srNeeded)
	}
}

// XMCA: reset, force the OTP top/bottom direction, then protect everything
// and clear the lock and ECC bits.
func (d *Device) statusCheckXMCA() {
	d.ResetEnable()
	d.Reset()
	osi.DelayUS(delayAfterResetUS)

	// Enter OTP mode: 3AH. The direction bit is one-time-programmable.
	cmdOnlyNoRx(d.port, Command{Op: 0x3a})
	srOtp := d.readSR1()
	if srOtp&xmcaSROTPTB == 0 {
		d.WriteEnable()
		d.writeSR1(srOtp | xmcaSROTPTB)
		d.WaitWipFinish()
	}
	d.WriteDisable() // leaves OTP mode

	sr := d.readSR1()
	srNeeded := sr | (xmcaSRBP0 | xmcaSRBP1 | xmcaSRBP2 | xmcaSRBP3)
	srNeeded &^= xmcaSREBL | xmcaSRSRP
	if sr != srNeeded {
		d.WriteEnable()
		d.writeSR1(srNeeded)
		d.WaitWipFinish()
	}
}

// XMCB: no volatile block protect; the status register holds exactly QE.
func (d *Device) statusCheckXMCB() {
	d.ResetEnable()
	d.Reset()
	osi.DelayUS(delayAfterResetUS)

	sr := d.readSR1()
	if sr != xmcbSRQE {
		d.WriteEnable()
		d.writeSR1(xmcbSRQE)
		d.WaitWipFinish()
	}
}

// StatusCheck brings the status register to a reasonable state for the bound
// part: clear stuck suspend bits by reset, set QE, establish the write
// protection baseline.
func (d *Device) StatusCheck() {
	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypeXTX, TypePuya:
		d.statusCheckGD()

	case TypeXMCA:
		d.statusCheckXMCA()

	case TypeXMCB:
		d.statusCheckXMCB()
	}
}

// Init reads the JEDEC ID, binds properties from the table (an unknown ID is
// fatal) and runs the vendor status check. It must be called before quad
// read is configured in the controller.
func (d *Device) Init() {
	mid := d.readID()
	d.propsByMid(mid)
	d.StatusCheck()
}

// UnsetQuadEnable clears the QE bit. It exists only for verification; real
// applications have no reason to call it.
func (d *Device) UnsetQuadEnable() bool {
	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypeXTX, TypePuya:
		d.WriteSR(d.ReadSR() &^ gdSRQE)
		return true

	case TypeXMCB:
		d.WriteSR(d.ReadSR() &^ uint16(xmcbSRQE))
		return true

	default:
		return false
	}
}
