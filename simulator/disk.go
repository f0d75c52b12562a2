package simulator

import "priamsmart/core"

// Completion types in the drive status byte
const (
	compGood                 = 0
	compSystemError          = 1
	compOperatorIntervention = 2
	compCommandDriveError    = 3
)

// Completion codes reported by Disk
const (
	CodeOK          = 0x0
	CodeNoDrive     = 0x1
	CodeNotSpunUp   = 0x2
	CodeBadHead     = 0x3
	CodeBadCylinder = 0x4
	CodeBadSector   = 0x5
)

// Geometry describes a simulated drive
type Geometry struct {
	Heads           uint8 // 3-bit field on the interface
	Cylinders       uint16
	SectorsPerTrack uint8
	SectorSize      uint16
}

// DefaultGeometry is a small Priam-like drive
func DefaultGeometry() Geometry {
	return Geometry{Heads: 5, Cylinders: 1024, SectorsPerTrack: 18, SectorSize: 512}
}

// Disk answers the drive command set on a Controller
type Disk struct {
	Geometry Geometry
	Drives   uint8 // drives present, numbered from 0

	// SpinUpPolls is the busy time of a spin-up-and-wait
	SpinUpPolls int

	spun [4]bool
	head [4]uint8
	cyl  [4]uint16
}

// NewDisk returns a single-drive disk with the default geometry
func NewDisk() *Disk {
	return &Disk{Geometry: DefaultGeometry(), Drives: 1, SpinUpPolls: 3}
}

// Attach installs the disk's handlers on c
func (d *Disk) Attach(c *Controller) {
	c.Handle(core.OpSpinUpAndWait, d.spinUp)
	c.Handle(core.OpSpinUpAndReturn, d.spinUp)
	c.Handle(core.OpSpinDown, d.spinDown)
	c.Handle(core.OpReadDriveParams, d.readParams)
	c.Handle(core.OpSeekWithRetry, d.seek)
	c.Handle(core.OpSeekNoRetry, d.seek)
	c.Handle(core.OpVerifyDisk, d.verify)
	c.Handle(core.OpReadDataRetry, d.readData)
	c.Handle(core.OpReadDataNoRetry, d.readData)
}

// SpunUp reports whether drive is spinning
func (d *Disk) SpunUp(drive uint8) bool {
	return drive < d.Drives && d.spun[drive&3]
}

// Position returns the head and cylinder of drive
func (d *Disk) Position(drive uint8) (uint8, uint16) {
	return d.head[drive&3], d.cyl[drive&3]
}

// Pattern is the byte at offset i of a sector's contents
func Pattern(drive, head uint8, cylinder uint16, sector uint8, i int) byte {
	return byte(int(drive)*31 + int(head)*17 + int(cylinder)*7 + int(sector)*3 + i)
}

// StatusByte packs a drive status register
func StatusByte(drive, compType, code uint8) uint8 {
	return (drive&3)<<6 | (compType&3)<<4 | code&0xF
}

func packHeadCylinder(head uint8, cyl uint16) (uint8, uint8) {
	return (head&7)<<4 | uint8(cyl>>8)&0xF, uint8(cyl)
}

func unpackHeadCylinder(r1, r2 uint8) (uint8, uint16) {
	return (r1 >> 4) & 7, uint16(r1&0xF)<<8 | uint16(r2)
}

func statusOnly(status uint8) Response {
	var r Response
	r.Results[0] = status
	return r
}

// check validates the drive number and, when needSpin, that it is spinning
func (d *Disk) check(drive uint8, needSpin bool) (uint8, bool) {
	if drive >= d.Drives || int(drive) >= len(d.spun) {
		return StatusByte(drive, compCommandDriveError, CodeNoDrive), false
	}
	if needSpin && !d.spun[drive] {
		return StatusByte(drive, compOperatorIntervention, CodeNotSpunUp), false
	}
	return StatusByte(drive, compGood, CodeOK), true
}

func (d *Disk) spinUp(op core.Opcode, p [core.MaxRegisters]byte) Response {
	status, ok := d.check(p[0], false)
	r := statusOnly(status)
	if ok {
		d.spun[p[0]] = true
		d.head[p[0]], d.cyl[p[0]] = 0, 0
		if op == core.OpSpinUpAndWait {
			r.BusyPolls = d.SpinUpPolls
		}
	}
	return r
}

func (d *Disk) spinDown(_ core.Opcode, p [core.MaxRegisters]byte) Response {
	status, ok := d.check(p[0], false)
	if ok {
		d.spun[p[0]] = false
	}
	return statusOnly(status)
}

func (d *Disk) readParams(_ core.Opcode, p [core.MaxRegisters]byte) Response {
	status, ok := d.check(p[0], false)
	r := statusOnly(status)
	if !ok {
		return r
	}
	g := d.Geometry
	r.Results[1], r.Results[2] = packHeadCylinder(g.Heads, g.Cylinders)
	r.Results[3] = g.SectorsPerTrack
	r.Results[4] = uint8(g.SectorSize >> 8)
	r.Results[5] = uint8(g.SectorSize)
	return r
}

// locate validates a head/cylinder address on a spinning drive
func (d *Disk) locate(drive, r1, r2 uint8) (uint8, uint16, uint8, bool) {
	status, ok := d.check(drive, true)
	if !ok {
		return 0, 0, status, false
	}
	head, cyl := unpackHeadCylinder(r1, r2)
	if head >= d.Geometry.Heads {
		return head, cyl, StatusByte(drive, compCommandDriveError, CodeBadHead), false
	}
	if cyl >= d.Geometry.Cylinders {
		return head, cyl, StatusByte(drive, compCommandDriveError, CodeBadCylinder), false
	}
	return head, cyl, status, true
}

func (d *Disk) seek(_ core.Opcode, p [core.MaxRegisters]byte) Response {
	head, cyl, status, ok := d.locate(p[0], p[1], p[2])
	r := statusOnly(status)
	if !ok {
		return r
	}
	d.head[p[0]], d.cyl[p[0]] = head, cyl
	r.Results[1], r.Results[2] = packHeadCylinder(head, cyl)
	r.BusyPolls = 1
	return r
}

// verify scans the whole surface and reports the last sector visited
func (d *Disk) verify(_ core.Opcode, p [core.MaxRegisters]byte) Response {
	status, ok := d.check(p[0], true)
	r := statusOnly(status)
	if !ok {
		return r
	}
	g := d.Geometry
	r.Results[1], r.Results[2] = packHeadCylinder(g.Heads-1, g.Cylinders-1)
	r.Results[3] = g.SectorsPerTrack - 1
	r.BusyPolls = 4
	return r
}

func (d *Disk) readData(_ core.Opcode, p [core.MaxRegisters]byte) Response {
	drive, sector, count := p[0], p[3], p[4]
	head, cyl, status, ok := d.locate(drive, p[1], p[2])
	if !ok {
		return statusOnly(status)
	}
	if sector >= d.Geometry.SectorsPerTrack || int(sector)+int(count) > int(d.Geometry.SectorsPerTrack) {
		return statusOnly(StatusByte(drive, compCommandDriveError, CodeBadSector))
	}

	size := int(d.Geometry.SectorSize)
	r := statusOnly(status)
	r.Data = make([]byte, 0, int(count)*size)
	for s := uint8(0); s < count; s++ {
		for i := 0; i < size; i++ {
			r.Data = append(r.Data, Pattern(drive, head, cyl, sector+s, i))
		}
	}
	d.head[drive], d.cyl[drive] = head, cyl
	return r
}
