package flash

const (
	size4K  = 4 * 1024
	size32K = 32 * 1024
	size64K = 64 * 1024
)

// Sector counts for the GD tables, offset unit is one 4K sector.
const (
	sectors32K = size32K / size4K
	sectors16K = (16 * 1024) / size4K
	sectors8K  = (8 * 1024) / size4K
	sectors4K  = 1
	sectors1M  = (1 << 20) / size4K
	sectors2M  = (2 << 20) / size4K
	sectors4M  = (4 << 20) / size4K
	sectors8M  = (8 << 20) / size4K
	sectors16M = (16 << 20) / size4K
)

// wpMapEntry maps a protected-prefix threshold (in table units) to the SR
// bit pattern establishing it. Tables are ordered by strictly decreasing
// offset and terminate at offset 0 (nothing protected).
type wpMapEntry struct {
	offset uint32
	sr     uint16
}

// gdWpMask covers CMP plus BP4..BP0; it is identical across GD capacities.
const gdWpMask uint16 = 0x407c

// xmcaWpMask covers BP3..BP0 in SR1.
const xmcaWpMask uint16 = 0x003c

// Table for GD 1MB, offset unit in 4K.
var gdWpMap1M = []wpMapEntry{
	{sectors1M, 0x007c}, // all
	{sectors1M - sectors1M/16, 0x4068},
	{sectors1M - sectors1M/8, 0x4064},
	{sectors1M - sectors1M/4, 0x4060},
	{sectors1M / 2, 0x405c},
	{sectors1M / 4, 0x4058},
	{sectors1M / 8, 0x4054},
	{sectors1M / 16, 0x4050},
	{sectors32K, 0x404c},
	{sectors16K, 0x4048},
	{sectors8K, 0x4044},
	{sectors4K, 0x4040},
	{0, 0x0000}, // none
}

// Table for GD 2MB, offset unit in 4K.
var gdWpMap2M = []wpMapEntry{
	{sectors2M, 0x007c}, // all
	{sectors2M - sectors2M/32, 0x406c},
	{sectors2M - sectors2M/16, 0x4068},
	{sectors2M - sectors2M/8, 0x4064},
	{sectors2M - sectors2M/4, 0x4060},
	{sectors2M / 2, 0x405c},
	{sectors2M / 4, 0x4058},
	{sectors2M / 8, 0x4054},
	{sectors2M / 16, 0x4050},
	{sectors2M / 32, 0x404c},
	{sectors32K, 0x4048},
	{sectors16K, 0x4044},
	{sectors8K, 0x4040},
	{sectors4K, 0x4070},
	{0, 0x0000}, // none
}

// Table for GD 4MB, offset unit in 4K. The 8MB and 16MB tables reuse the
// same bit patterns with scaled thresholds.
var gdWpMap4M = []wpMapEntry{
	{sectors4M, 0x007c}, // all
	{sectors4M - sectors4M/64, 0x4070},
	{sectors4M - sectors4M/32, 0x406c},
	{sectors4M - sectors4M/16, 0x4068},
	{sectors4M - sectors4M/8, 0x4064},
	{sectors4M - sectors4M/4, 0x4060},
	{sectors4M / 2, 0x405c},
	{sectors4M / 4, 0x4058},
	{sectors4M / 8, 0x4054},
	{sectors4M / 16, 0x4050},
	{sectors4M / 32, 0x404c},
	{sectors4M / 64, 0x4048},
	{sectors32K, 0x4044},
	{sectors16K, 0x4040},
	{sectors8K, 0x4078},
	{sectors4K, 0x4074},
	{0, 0x0000}, // none
}

// Table for GD 8MB, offset unit in 4K.
var gdWpMap8M = []wpMapEntry{
	{sectors8M, 0x007c}, // all
	{sectors8M - sectors8M/64, 0x4070},
	{sectors8M - sectors8M/32, 0x406c},
	{sectors8M - sectors8M/16, 0x4068},
	{sectors8M - sectors8M/8, 0x4064},
	{sectors8M - sectors8M/4, 0x4060},
	{sectors8M / 2, 0x405c},
	{sectors8M / 4, 0x4058},
	{sectors8M / 8, 0x4054},
	{sectors8M / 16, 0x4050},
	{sectors8M / 32, 0x404c},
	{sectors8M / 64, 0x4048},
	{sectors32K, 0x4044},
	{sectors16K, 0x4040},
	{sectors8K, 0x4078},
	{sectors4K, 0x4074},
	{0, 0x0000}, // none
}

// Table for GD 16MB, offset unit in 4K.
var gdWpMap16M = []wpMapEntry{
	{sectors16M, 0x007c}, // all
	{sectors16M - sectors16M/64, 0x4070},
	{sectors16M - sectors16M/32, 0x406c},
	{sectors16M - sectors16M/16, 0x4068},
	{sectors16M - sectors16M/8, 0x4064},
	{sectors16M - sectors16M/4, 0x4060},
	{sectors16M / 2, 0x405c},
	{sectors16M / 4, 0x4058},
	{sectors16M / 8, 0x4054},
	{sectors16M / 16, 0x4050},
	{sectors16M / 32, 0x404c},
	{sectors16M / 64, 0x4048},
	{sectors32K, 0x4044},
	{sectors16K, 0x4040},
	{sectors8K, 0x4078},
	{sectors4K, 0x4074},
	{0, 0x0000}, // none
}

// xmcaWpAll protects everything; table offsets are in 1/128 of capacity.
const xmcaWpAll uint16 = 0x003c

// Table for XMCA, offset unit in 1/128.
var xmcaWpMap = []wpMapEntry{
	{128, xmcaWpAll},
	{127, 0x0038},
	{126, 0x0034},
	{124, 0x0030},
	{120, 0x002c},
	{112, 0x0028},
	{96, 0x0024},
	{64, 0x0020},
	{32, 0x001c},
	{16, 0x0018},
	{8, 0x0014},
	{4, 0x0010},
	{2, 0x000c},
	{1, 0x0008},
	{0, 0x0000},
}

// findWpBits returns the SR bits of the first entry whose threshold is at or
// below offset; tables are in descending order and terminate at 0.
func findWpBits(m []wpMapEntry, offset uint32) uint16 {
	for _, e := range m {
		if offset >= e.offset {
			return e.sr
		}
	}
	return 0
}

// findWpOffset is the reverse lookup: the largest threshold at or below
// offset.
func findWpOffset(m []wpMapEntry, offset uint32) uint32 {
	for _, e := range m {
		if offset >= e.offset {
			return e.offset
		}
	}
	return 0
}

func gdWpMapByCapacity(capacity uint32) []wpMapEntry {
	switch capacity {
	case 1 << 20:
		return gdWpMap1M
	case 2 << 20:
		return gdWpMap2M
	case 4 << 20:
		return gdWpMap4M
	case 8 << 20:
		return gdWpMap8M
	case 16 << 20:
		return gdWpMap16M
	}
	return nil
}

// statusWpLowerGD relaxes the SR protection so a write at offset is allowed.
func (d *Device) statusWpLowerGD(sr uint16, offset uint32) uint16 {
	m := gdWpMapByCapacity(d.capacity)
	if m == nil {
		return sr
	}
	scount := offset / size4K
	return (sr &^ gdWpMask) | findWpBits(m, scount)
}

// statusWpAllGD returns the SR with everything protected.
func (d *Device) statusWpAllGD(sr uint16) uint16 {
	m := gdWpMapByCapacity(d.capacity)
	if m == nil {
		return sr
	}
	return (sr &^ gdWpMask) | m[0].sr
}

// xmcaUnitShift converts a byte offset to 1/128-capacity units.
func (d *Device) xmcaUnitShift() uint32 {
	return midCapacityBits(d.mid) - 7
}

// statusWpLowerXMCA relaxes the SR1 protection so a write at offset is
// allowed.
func (d *Device) statusWpLowerXMCA(sr uint8, offset uint32) uint8 {
	num := offset >> d.xmcaUnitShift()
	return (sr &^ uint8(xmcaWpMask)) | uint8(findWpBits(xmcaWpMap, num))
}

// statusWpAllXMCA returns the SR1 with everything protected.
func (d *Device) statusWpAllXMCA(sr uint8) uint8 {
	return (sr &^ uint8(xmcaWpMask)) | uint8(xmcaWpAll)
}

// Range is a half-open byte range.
type Range struct {
	Min uint32
	Max uint32
}

// WpRange returns the actual protected window for an intended access at
// offset: the status register cannot protect arbitrary regions, so the
// granted prefix is the largest table threshold not above the access offset.
func (d *Device) WpRange(offset, size uint32) Range {
	var r Range
	switch d.wpType {
	case WpGD:
		m := gdWpMapByCapacity(d.capacity)
		if m != nil {
			r.Max = findWpOffset(m, offset/size4K) * size4K
		}
	case WpXMCA:
		shift := d.xmcaUnitShift()
		r.Max = findWpOffset(xmcaWpMap, offset>>shift) << shift
	}
	return r
}

// PrepareEraseProgram relaxes volatile write protection for the target range
// and sends write enable. Callers may batch several program or erase
// operations under one prepare/finish envelope.
func (d *Device) PrepareEraseProgram(offset, size uint32) {
	if d.volatileSR {
		if d.wpType == WpGD {
			sr := d.readSR12()
			srOpen := d.statusWpLowerGD(sr, offset)
			if sr != srOpen {
				d.writeVolatileSR12(srOpen)
			}
		} else if d.wpType == WpXMCA {
			sr := d.readSR1()
			srOpen := d.statusWpLowerXMCA(sr, offset)
			if sr != srOpen {
				d.writeVolatileSR1(srOpen)
			}
		}
	}
	d.WriteEnable()
}

// FinishEraseProgram restores protect-all after a batch of program or erase
// operations.
func (d *Device) FinishEraseProgram() {
	if d.volatileSR && d.wpType == WpGD {
		sr := d.readSR12()
		srClose := d.statusWpAllGD(sr)
		if sr != srClose {
			d.writeVolatileSR12(srClose)
		}
	} else if d.volatileSR && d.wpType == WpXMCA {
		sr := d.readSR1()
		srClose := d.statusWpAllXMCA(sr)
		if sr != srClose {
			d.writeVolatileSR1(srClose)
		}
	}
}
