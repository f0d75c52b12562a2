package drive

import "priamsmart/core"

// HeadCylinder is a head/cylinder address. On the wire it occupies two
// registers: head in bits 6-4 and cylinder bits 11-8 of the first,
// cylinder bits 7-0 in the second.
type HeadCylinder struct {
	Head     uint8  // 3-bit field
	Cylinder uint16 // 12-bit field
}

// Registers packs the address into its two register values
func (hc HeadCylinder) Registers() (uint8, uint8) {
	r1 := (hc.Head&7)<<4 | uint8(hc.Cylinder>>8)&0xF
	r2 := uint8(hc.Cylinder & 0xFF)
	return r1, r2
}

// ParseHeadCylinder unpacks a head/cylinder address from two register values
func ParseHeadCylinder(r1, r2 uint8) HeadCylinder {
	return HeadCylinder{
		Head:     (r1 >> 4) & 7,
		Cylinder: uint16(r1&0xF)<<8 | uint16(r2),
	}
}

// DriveParam selects a drive
type DriveParam struct {
	Drive uint8
}

// Registers implements core.Param
func (p DriveParam) Registers() core.RegisterValues[core.Regs1] {
	return core.NewRegisterValues(core.Regs1{p.Drive}, true)
}

// SeekParam addresses a drive, head and cylinder
type SeekParam struct {
	Drive uint8
	HeadCylinder
}

// Registers implements core.Param
func (p SeekParam) Registers() core.RegisterValues[core.Regs3] {
	r1, r2 := p.HeadCylinder.Registers()
	return core.NewRegisterValues(core.Regs3{p.Drive, r1, r2}, true)
}

// DiskReadParam addresses a run of sectors
type DiskReadParam struct {
	Drive uint8
	HeadCylinder
	Sector           uint8
	MultiSectorCount uint8
}

// Registers implements core.Param
func (p DiskReadParam) Registers() core.RegisterValues[core.Regs5] {
	r1, r2 := p.HeadCylinder.Registers()
	return core.NewRegisterValues(core.Regs5{p.Drive, r1, r2, p.Sector, p.MultiSectorCount}, true)
}
