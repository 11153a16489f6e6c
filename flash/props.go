package flash

import "ember/osi"

// Type identifies the vendor command family a part belongs to. The GD family
// (GD, Winbond, XMCC, XTX, Puya) shares one security-register opcode set;
// XMCA and XMCB have their own status-check rituals.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeGD
	TypeWinbond
	TypeXMCA
	TypeXMCB
	TypeXMCC
	TypeXTX
	TypePuya
)

// WpType identifies the write-protect mapping scheme.
type WpType uint8

const (
	WpNone WpType = iota
	WpGD
	WpXMCA
)

// UidType identifies how a part exposes its unique ID.
type UidType uint8

const (
	UidNone UidType = iota
	Uid4BH8
	Uid4BH16
	UidSFDP80H12
	UidSFDP194H16
	UidSFDP94H16
)

// CpidType identifies CP ID support.
type CpidType uint8

const (
	CpidNone CpidType = iota
	Cpid4BH
)

// props is one property table record. The mid key is a full 3-byte JEDEC ID,
// a 16-bit vendor+memtype prefix, or an 8-bit vendor fallback.
type props struct {
	mid           uint32
	capacity      uint32
	sregBlockSize uint16
	typ           Type
	wpType        WpType
	uidType       UidType
	cpidType      CpidType
	sregMinNum    uint8
	sregMaxNum    uint8

	volatileSR bool
	suspend    bool
	sfdp       bool
	writeSR12  bool
	hasSR2     bool
	hasSUS1    bool
	hasSUS2    bool
}

// The property table. Exact entries first is not required; lookup tries the
// full MID, then vendor+memtype, then vendor alone.
var deviceProps = []props{
	// GigaDevice GD25Q series
	{mid: 0x1440c8, capacity: 1 << 0x14, sregBlockSize: 1024, typ: TypeGD, wpType: WpGD, uidType: Uid4BH16, cpidType: Cpid4BH, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},
	{mid: 0x1540c8, capacity: 1 << 0x15, sregBlockSize: 1024, typ: TypeGD, wpType: WpGD, uidType: Uid4BH16, cpidType: Cpid4BH, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},
	{mid: 0x1640c8, capacity: 1 << 0x16, sregBlockSize: 1024, typ: TypeGD, wpType: WpGD, uidType: Uid4BH16, cpidType: Cpid4BH, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},
	{mid: 0x1740c8, capacity: 1 << 0x17, sregBlockSize: 1024, typ: TypeGD, wpType: WpGD, uidType: Uid4BH16, cpidType: Cpid4BH, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},
	// GD vendor+memtype and vendor fallbacks
	{mid: 0x40c8, sregBlockSize: 1024, typ: TypeGD, wpType: WpGD, uidType: Uid4BH16, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},
	{mid: 0xc8, sregBlockSize: 1024, typ: TypeGD, wpType: WpGD, sregMinNum: 1, sregMaxNum: 3,
		sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},

	// Winbond W25Q series: SR2 written with the separate 31H command
	{mid: 0x1540ef, capacity: 1 << 0x15, sregBlockSize: 1024, typ: TypeWinbond, wpType: WpGD, uidType: Uid4BH8, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, hasSR2: true, hasSUS1: true},
	{mid: 0x1740ef, capacity: 1 << 0x17, sregBlockSize: 1024, typ: TypeWinbond, wpType: WpGD, uidType: Uid4BH8, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, hasSR2: true, hasSUS1: true},
	{mid: 0x40ef, sregBlockSize: 1024, typ: TypeWinbond, wpType: WpGD, uidType: Uid4BH8, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, hasSR2: true, hasSUS1: true},

	// Puya P25Q series
	{mid: 0x146085, capacity: 1 << 0x14, sregBlockSize: 512, typ: TypePuya, wpType: WpGD, uidType: UidSFDP94H16, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true},
	{mid: 0x6085, sregBlockSize: 512, typ: TypePuya, wpType: WpGD, uidType: UidSFDP94H16, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true},

	// XTX XT25F series: single lock bit for all security registers
	{mid: 0x15400b, capacity: 1 << 0x15, sregBlockSize: 1024, typ: TypeXTX, wpType: WpGD, uidType: UidSFDP194H16, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true},
	{mid: 0x400b, sregBlockSize: 1024, typ: TypeXTX, wpType: WpGD, uidType: UidSFDP194H16, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true},

	// XMC, A series: single status register, OTP top/bottom configuration
	{mid: 0x163620, capacity: 1 << 0x16, typ: TypeXMCA, wpType: WpXMCA, uidType: UidSFDP80H12,
		volatileSR: true, sfdp: true},
	{mid: 0x3620, typ: TypeXMCA, wpType: WpXMCA, uidType: UidSFDP80H12,
		volatileSR: true, sfdp: true},

	// XMC, B series: function-register security locking, 68H opcode family
	{mid: 0x164120, capacity: 1 << 0x16, sregBlockSize: 512, typ: TypeXMCB, sregMaxNum: 3, uidType: Uid4BH16,
		suspend: true, sfdp: true},
	{mid: 0x4120, sregBlockSize: 512, typ: TypeXMCB, sregMaxNum: 3, uidType: Uid4BH16,
		suspend: true, sfdp: true},

	// XMC, C series: behaves as the GD family
	{mid: 0x165120, capacity: 1 << 0x16, sregBlockSize: 1024, typ: TypeXMCC, wpType: WpGD, uidType: Uid4BH16, sregMinNum: 1, sregMaxNum: 3,
		volatileSR: true, suspend: true, sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},
	{mid: 0x20, sregBlockSize: 1024, typ: TypeXMCC, wpType: WpGD, sregMinNum: 1, sregMaxNum: 3,
		sfdp: true, writeSR12: true, hasSR2: true, hasSUS1: true, hasSUS2: true},
}

// midCapacityBits extracts the capacity exponent from a 3-byte JEDEC ID.
func midCapacityBits(mid uint32) uint32 {
	return (mid >> 16) & 0xff
}

// propsByMid binds property fields from the table: exact MID first, then
// vendor+memtype, then vendor alone. An unknown ID is a broken configuration
// and fatal.
func (d *Device) propsByMid(mid uint32) {
	found := -1
	for n := range deviceProps {
		if deviceProps[n].mid == mid {
			found = n
			break
		}
	}
	if found < 0 {
		for n := range deviceProps {
			if deviceProps[n].mid == mid&0xffff {
				found = n
				break
			}
		}
	}
	if found < 0 {
		for n := range deviceProps {
			if deviceProps[n].mid == mid&0xff {
				found = n
				break
			}
		}
	}

	// Something is wrong, we can't go further.
	if found < 0 {
		osi.Panic("flash: unknown JEDEC ID")
	}

	p := &deviceProps[found]
	d.sregBlockSize = p.sregBlockSize
	d.typ = p.typ
	d.wpType = p.wpType
	d.uidType = p.uidType
	d.cpidType = p.cpidType
	d.sregMinNum = p.sregMinNum
	d.sregMaxNum = p.sregMaxNum
	d.volatileSR = p.volatileSR
	d.suspend = p.suspend
	d.sfdp = p.sfdp
	d.writeSR12Flag = p.writeSR12
	d.hasSR2 = p.hasSR2
	d.hasSUS1 = p.hasSUS1
	d.hasSUS2 = p.hasSUS2

	d.mid = mid
	d.capacity = 1 << midCapacityBits(mid)
}
