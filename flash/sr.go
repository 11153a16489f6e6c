package flash

import "ember/osi"

// Status register bits common to all supported families.
const (
	srWIP uint16 = 0x0001
	srWEL uint16 = 0x0002
)

// GD family status bits, SR1 in the low byte and SR2 in the high byte.
const (
	gdSRQE   uint16 = 0x0200
	gdSRSUS2 uint16 = 0x0400
	gdSRLB1  uint16 = 0x0800
	gdSRCMP  uint16 = 0x4000
	gdSRSUS1 uint16 = 0x8000
)

// XTX keeps a single lock bit for all security registers.
const xtxSRLB uint16 = 0x0400

// XMCA status register 1 bits.
const (
	xmcaSRBP0 uint8 = 0x04
	xmcaSRBP1 uint8 = 0x08
	xmcaSRBP2 uint8 = 0x10
	xmcaSRBP3 uint8 = 0x20
	xmcaSREBL uint8 = 0x40
	xmcaSRSRP uint8 = 0x80

	// Top/bottom protect direction, visible only in OTP mode.
	xmcaSROTPTB uint8 = 0x10
)

// XMCB status and function register bits.
const (
	xmcbSRQE   uint8 = 0x40
	xmcbFRIRL0 uint8 = 0x10
)

// RDSR: 05H
func (d *Device) readSR1() uint8 {
	return uint8(cmdOnlyReadback(d.port, 0x05, 1))
}

// RDSR: 35H
func (d *Device) readSR2() uint8 {
	return uint8(cmdOnlyReadback(d.port, 0x35, 1))
}

// Read SR1 (at LSB) and SR2 (at MSB).
func (d *Device) readSR12() uint16 {
	return uint16(d.readSR2())<<8 | uint16(d.readSR1())
}

// WRSR: 01H, write both SR1 and SR2.
func (d *Device) writeSR12(sr uint16) {
	data := []byte{byte(sr), byte(sr >> 8)}
	cmdNoRx(d.port, Command{Op: 0x01}, data)
}

// WRSR: 01H, write SR1 only.
func (d *Device) writeSR1(sr uint8) {
	cmdNoRx(d.port, Command{Op: 0x01}, []byte{sr})
}

// WRSR: 31H, write SR2 only.
func (d *Device) writeSR2(sr uint8) {
	cmdNoRx(d.port, Command{Op: 0x31}, []byte{sr})
}

// Write Enable for Volatile Status Register: 50H
func (d *Device) writeVolatileSREnable() {
	cmdOnlyNoRx(d.port, Command{Op: 0x50})
}

// writeVolatileSR12 writes the volatile SR 1/2 and loops until a readback
// confirms the value; volatile writes can silently fail on some devices.
func (d *Device) writeVolatileSR12(sr uint16) {
	for {
		if d.writeSR12Flag {
			d.writeVolatileSREnable()
			d.writeSR12(sr)
		} else {
			d.writeVolatileSREnable()
			d.writeSR1(uint8(sr))
			d.writeVolatileSREnable()
			d.writeSR2(uint8(sr >> 8))
		}

		if d.readSR12() == sr {
			break
		}
	}
}

// writeVolatileSR1 writes the volatile SR1, with the same readback check.
func (d *Device) writeVolatileSR1(sr uint8) {
	for {
		d.writeVolatileSREnable()
		d.writeSR1(sr)

		if d.readSR1() == sr {
			break
		}
	}
}

// ReadSR returns the status register: the 16-bit SR2<<8|SR1 combination when
// the part has SR2, the 8-bit SR1 otherwise.
func (d *Device) ReadSR() uint16 {
	if d.hasSR2 {
		return d.readSR12()
	}
	return uint16(d.readSR1())
}

// WriteSR writes the status register through whichever write path the part
// supports: SR1 only, SR1+SR2 in one command, or two separate commands.
// Write enable and wait-for-finish are handled inside.
func (d *Device) WriteSR(sr uint16) {
	if !d.hasSR2 {
		d.WriteEnable()
		d.writeSR1(uint8(sr))
		d.WaitWipFinish()
	} else if d.writeSR12Flag {
		d.WriteEnable()
		d.writeSR12(sr)
		d.WaitWipFinish()
	} else {
		d.WriteEnable()
		d.writeSR1(uint8(sr))
		d.WaitWipFinish()
		d.WriteEnable()
		d.writeSR2(uint8(sr >> 8))
		d.WaitWipFinish()
	}
}

// IsWipFinished reads SR1 twice and reports WIP clear only when both reads
// agree, debouncing a known readout glitch.
func (d *Device) IsWipFinished() bool {
	osi.DelayUS(1)
	if uint16(d.readSR1())&srWIP != 0 {
		return false
	}
	if uint16(d.readSR1())&srWIP != 0 {
		return false
	}
	return true
}

// WaitWipFinish spins until WIP is clear.
func (d *Device) WaitWipFinish() {
	for !d.IsWipFinished() {
	}
}
