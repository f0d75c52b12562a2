// Package drive is the drive-facing command set of the Priam Smart interface.
package drive

import "priamsmart/core"

// Drive issues typed commands through one interface
type Drive struct {
	iface *core.Interface
}

// New returns a Drive bound to iface
func New(iface *core.Interface) *Drive {
	return &Drive{iface: iface}
}

// Interface returns the underlying interface
func (d *Drive) Interface() *core.Interface {
	return d.iface
}

// SpinUpWait spins the drive up and completes once it is at speed
func (d *Drive) SpinUpWait(driveNo uint8) TransactionStatus {
	return CmdSpinUpAndWait.Execute(d.iface, DriveParam{Drive: driveNo})
}

// SpinUpReturn starts the spin-up and completes immediately
func (d *Drive) SpinUpReturn(driveNo uint8) TransactionStatus {
	return CmdSpinUpAndReturn.Execute(d.iface, DriveParam{Drive: driveNo})
}

func (d *Drive) SpinDown(driveNo uint8) TransactionStatus {
	return CmdSpinDown.Execute(d.iface, DriveParam{Drive: driveNo})
}

// ReadParams reads the drive geometry
func (d *Drive) ReadParams(driveNo uint8) ResultDriveParams {
	return CmdReadParams.Execute(d.iface, DriveParam{Drive: driveNo})
}

// Seek positions the heads. withRetry selects the controller's retrying variant.
func (d *Drive) Seek(driveNo, head uint8, cylinder uint16, withRetry bool) ResultCylinder {
	p := SeekParam{Drive: driveNo, HeadCylinder: HeadCylinder{Head: head, Cylinder: cylinder}}
	if withRetry {
		return CmdSeekWithRetry.Execute(d.iface, p)
	}
	return CmdSeekNoRetry.Execute(d.iface, p)
}

// VerifyDisk runs the controller's surface verify and returns where it stopped
func (d *Drive) VerifyDisk(driveNo uint8) ResultHeadCylinderSector {
	return CmdVerifyDisk.Execute(d.iface, DriveParam{Drive: driveNo})
}

// ReadData reads count sectors starting at sector. Sector bytes are delivered
// through the interface data hook as the controller offers them.
func (d *Drive) ReadData(driveNo, head uint8, cylinder uint16, sector, count uint8, withRetry bool) TransactionStatus {
	p := DiskReadParam{
		Drive:            driveNo,
		HeadCylinder:     HeadCylinder{Head: head, Cylinder: cylinder},
		Sector:           sector,
		MultiSectorCount: count,
	}
	if withRetry {
		return CmdReadDataWithRetry.Execute(d.iface, p)
	}
	return CmdReadDataNoRetry.Execute(d.iface, p)
}
