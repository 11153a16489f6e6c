package flash

// Security register operations. Valid register numbers and block sizes are
// part properties; the physical byte address of a security register byte is
// (num << 12) | offset.

func (d *Device) sregValid(num uint8) bool {
	return num >= d.sregMinNum && num <= d.sregMaxNum
}

// Read security register: 48H
func (d *Device) sregRead48H(address uint32, data []byte) {
	a := addrBytes(address)
	tx := []byte{a[0], a[1], a[2], 0}
	word := cmdRxReadback(d.port, 0x48, len(data), tx)
	for i := range data {
		data[i] = byte(word)
		word >>= 8
	}
}

// Read security register: 68H
func (d *Device) sregRead68H(address uint32, data []byte) {
	a := addrBytes(address)
	tx := []byte{a[0], a[1], a[2], 0}
	cmdRxFifo(d.port, 0x68, tx, data)
}

// Program security register: 42H
func (d *Device) sregProgram42H(address uint32, data []byte) {
	a := addrBytes(address)
	cmdNoRxDualTx(d.port, 0x42, a[:], data)
}

// Program security register: 62H
func (d *Device) sregProgram62H(address uint32, data []byte) {
	a := addrBytes(address)
	cmdNoRxDualTx(d.port, 0x62, a[:], data)
}

// Erase security register: 44H
func (d *Device) sregErase44H(address uint32) {
	a := addrBytes(address)
	cmdNoRx(d.port, Command{Op: 0x44}, a[:])
}

// Erase security register: 64H
func (d *Device) sregErase64H(address uint32) {
	a := addrBytes(address)
	cmdNoRx(d.port, Command{Op: 0x64}, a[:])
}

// GD family: lock bits LB1..LB3 in SR12, one per register.
func (d *Device) sregLockGD(num uint8) {
	sr := d.ReadSR()
	sr |= gdSRLB1 << (num - 1)
	d.WriteSR(sr)
}

func (d *Device) sregUnlockGD(num uint8) {
	sr := d.ReadSR()
	sr &^= gdSRLB1 << (num - 1)
	d.WriteSR(sr)
}

func (d *Device) sregIsLockedGD(num uint8) bool {
	return d.ReadSR()&(gdSRLB1<<(num-1)) != 0
}

// XTX: one lock bit covering every security register.
func (d *Device) sregLockXTX(uint8) {
	d.WriteSR(d.ReadSR() | xtxSRLB)
}

func (d *Device) sregUnlockXTX(uint8) {
	d.WriteSR(d.ReadSR() &^ xtxSRLB)
}

func (d *Device) sregIsLockedXTX(uint8) bool {
	return d.ReadSR()&xtxSRLB != 0
}

// XMCB: lock bits live in a separate function register, read with 48H and
// written with 42H.
func (d *Device) sregLockXMCB(num uint8) {
	fr := uint8(cmdOnlyReadback(d.port, 0x48, 1)) // RDFR
	fr |= xmcbFRIRL0 << num
	d.WriteEnable()
	cmdNoRx(d.port, Command{Op: 0x42}, []byte{fr}) // WRFR
	d.WaitWipFinish()
}

func (d *Device) sregUnlockXMCB(num uint8) {
	fr := uint8(cmdOnlyReadback(d.port, 0x48, 1)) // RDFR
	fr &^= xmcbFRIRL0 << num
	d.WriteEnable()
	cmdNoRx(d.port, Command{Op: 0x42}, []byte{fr}) // WRFR
	d.WaitWipFinish()
}

func (d *Device) sregIsLockedXMCB(num uint8) bool {
	fr := uint8(cmdOnlyReadback(d.port, 0x48, 1)) // RDFR
	return fr&(xmcbFRIRL0<<num) != 0
}

// ReadSecurityRegister reads from a security register, 4 bytes at most per
// call. It returns false for an invalid register number or range, or when
// the part has no security registers.
func (d *Device) ReadSecurityRegister(num uint8, address uint16, data []byte) bool {
	if !d.sregValid(num) {
		return false
	}
	if uint32(address)+uint32(len(data)) > uint32(d.sregBlockSize) {
		return false
	}

	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypeXTX, TypePuya:
		d.sregRead48H(uint32(num)<<12|uint32(address), data)
		return true

	case TypeXMCB:
		d.sregRead68H(uint32(num)<<12|uint32(address), data)
		return true

	default:
		return false
	}
}

// ProgramSecurityRegister programs bytes into a security register. The
// caller handles write enable and wait-for-finish around it.
func (d *Device) ProgramSecurityRegister(num uint8, address uint16, data []byte) bool {
	if !d.sregValid(num) {
		return false
	}
	if uint32(address)+uint32(len(data)) > uint32(d.sregBlockSize) {
		return false
	}

	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypeXTX, TypePuya:
		d.sregProgram42H(uint32(num)<<12|uint32(address), data)
		return true

	case TypeXMCB:
		d.sregProgram62H(uint32(num)<<12|uint32(address), data)
		return true

	default:
		return false
	}
}

// EraseSecurityRegister erases one security register block.
func (d *Device) EraseSecurityRegister(num uint8) bool {
	if !d.sregValid(num) {
		return false
	}
	if d.sregBlockSize == 0 {
		return false
	}

	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypeXTX, TypePuya:
		d.sregErase44H(uint32(num) << 12)
		return true

	case TypeXMCB:
		d.sregErase64H(uint32(num) << 12)
		return true

	default:
		return false
	}
}

// LockSecurityRegister permanently locks a security register against program
// and erase.
func (d *Device) LockSecurityRegister(num uint8) bool {
	if !d.sregValid(num) {
		return false
	}

	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypePuya:
		d.sregLockGD(num)
		return true

	case TypeXTX:
		d.sregLockXTX(num)
		return true

	case TypeXMCB:
		d.sregLockXMCB(num)
		return true

	default:
		return false
	}
}

// UnlockSecurityRegister exists only to verify that locked registers stay
// locked; lock bits are one-time-programmable on real parts.
func (d *Device) UnlockSecurityRegister(num uint8) bool {
	if !d.sregValid(num) {
		return false
	}

	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypePuya:
		d.sregUnlockGD(num)
		return true

	case TypeXTX:
		d.sregUnlockXTX(num)
		return true

	case TypeXMCB:
		d.sregUnlockXMCB(num)
		return true

	default:
		return false
	}
}

// IsSecurityRegisterLocked reports whether a security register is locked.
func (d *Device) IsSecurityRegisterLocked(num uint8) bool {
	if !d.sregValid(num) {
		return false
	}

	switch d.typ {
	case TypeGD, TypeWinbond, TypeXMCC, TypePuya:
		return d.sregIsLockedGD(num)

	case TypeXTX:
		return d.sregIsLockedXTX(num)

	case TypeXMCB:
		return d.sregIsLockedXMCB(num)

	default:
		return false
	}
}
