package drive

import "priamsmart/core"

// Drive command definitions. Register counts follow from the parameter and
// result array types, so a mismatched definition does not compile.
var (
	CmdSpinUpAndWait = core.NewCommand[DriveParam, core.Regs1, TransactionStatus, core.Regs1](
		core.OpSpinUpAndWait, ParseTransactionStatus)
	CmdSpinUpAndReturn = core.NewCommand[DriveParam, core.Regs1, TransactionStatus, core.Regs1](
		core.OpSpinUpAndReturn, ParseTransactionStatus)
	CmdSpinDown = core.NewCommand[DriveParam, core.Regs1, TransactionStatus, core.Regs1](
		core.OpSpinDown, ParseTransactionStatus)
	CmdReadParams = core.NewCommand[DriveParam, core.Regs1, ResultDriveParams, core.Regs6](
		core.OpReadDriveParams, ParseResultDriveParams)
	CmdSeekWithRetry = core.NewCommand[SeekParam, core.Regs3, ResultCylinder, core.Regs3](
		core.OpSeekWithRetry, ParseResultCylinder)
	CmdSeekNoRetry = core.NewCommand[SeekParam, core.Regs3, ResultCylinder, core.Regs3](
		core.OpSeekNoRetry, ParseResultCylinder)
	CmdVerifyDisk = core.NewCommand[DriveParam, core.Regs1, ResultHeadCylinderSector, core.Regs4](
		core.OpVerifyDisk, ParseResultHeadCylinderSector)
	CmdReadDataWithRetry = core.NewCommand[DiskReadParam, core.Regs5, TransactionStatus, core.Regs1](
		core.OpReadDataRetry, ParseTransactionStatus)
	CmdReadDataNoRetry = core.NewCommand[DiskReadParam, core.Regs5, TransactionStatus, core.Regs1](
		core.OpReadDataNoRetry, ParseTransactionStatus)
)
