package drive

import "priamsmart/core"

// ResultCylinder is the result of a seek
type ResultCylinder struct {
	Status TransactionStatus
	hc     HeadCylinder
}

// ParseResultCylinder decodes [status, head/cyl high, cyl low]
func ParseResultCylinder(regs core.RegisterValues[core.Regs3]) ResultCylinder {
	return ResultCylinder{
		Status: statusFrom(regs.Get(0), regs.Fault()),
		hc:     ParseHeadCylinder(regs.Get(1), regs.Get(2)),
	}
}

// Cylinder returns the cylinder the heads are positioned on
func (r ResultCylinder) Cylinder() uint16 {
	return r.hc.Cylinder
}

// ResultHeadCylinderSector is the result of a verify
type ResultHeadCylinderSector struct {
	Status TransactionStatus
	hc     HeadCylinder
	sector uint8
}

// ParseResultHeadCylinderSector decodes [status, head/cyl high, cyl low, sector]
func ParseResultHeadCylinderSector(regs core.RegisterValues[core.Regs4]) ResultHeadCylinderSector {
	return ResultHeadCylinderSector{
		Status: statusFrom(regs.Get(0), regs.Fault()),
		hc:     ParseHeadCylinder(regs.Get(1), regs.Get(2)),
		sector: regs.Get(3),
	}
}

func (r ResultHeadCylinderSector) Head() uint8 {
	return r.hc.Head
}

func (r ResultHeadCylinderSector) Cylinder() uint16 {
	return r.hc.Cylinder
}

func (r ResultHeadCylinderSector) Sector() uint8 {
	return r.sector
}

// ResultDriveParams is the drive geometry
type ResultDriveParams struct {
	Status     TransactionStatus
	hc         HeadCylinder
	sectors    uint8
	sectorSize uint16
}

// ParseResultDriveParams decodes
// [status, heads/cyl high, cyl low, sectors per track, sector size MSB, sector size LSB]
func ParseResultDriveParams(regs core.RegisterValues[core.Regs6]) ResultDriveParams {
	return ResultDriveParams{
		Status:     statusFrom(regs.Get(0), regs.Fault()),
		hc:         ParseHeadCylinder(regs.Get(1), regs.Get(2)),
		sectors:    regs.Get(3),
		sectorSize: uint16(regs.Get(4))<<8 | uint16(regs.Get(5)),
	}
}

func (r ResultDriveParams) Heads() uint8 {
	return r.hc.Head
}

func (r ResultDriveParams) Cylinders() uint16 {
	return r.hc.Cylinder
}

func (r ResultDriveParams) SectorsPerTrack() uint8 {
	return r.sectors
}

func (r ResultDriveParams) LogicalSectorSize() uint16 {
	return r.sectorSize
}
