package core

// Interface status register bits
const (
	StatusDatabusEnable     = 1 << 0
	StatusReadWriteRequest  = 1 << 1 // Set: controller has data for the host
	StatusTransferRequest   = 1 << 2
	StatusInterfaceBusy     = 1 << 3
	StatusCompletionRequest = 1 << 6
	StatusCommandReject     = 1 << 7
)

// InterfaceStatus is a decoded view of the interface status register
type InterfaceStatus uint8

// Raw returns the register value
func (s InterfaceStatus) Raw() uint8 {
	return uint8(s)
}

func (s InterfaceStatus) DatabusEnabled() bool {
	return s&StatusDatabusEnable != 0
}

func (s InterfaceStatus) TransferRequest() bool {
	return s&StatusTransferRequest != 0
}

// ReadRequest reports a pending byte for the host in the data-transfer register
func (s InterfaceStatus) ReadRequest() bool {
	return s.TransferRequest() && s&StatusReadWriteRequest != 0
}

// WriteRequest reports that the controller expects a byte from the host
func (s InterfaceStatus) WriteRequest() bool {
	return s.TransferRequest() && s&StatusReadWriteRequest == 0
}

func (s InterfaceStatus) Busy() bool {
	return s&StatusInterfaceBusy != 0
}

func (s InterfaceStatus) CompletionRequest() bool {
	return s&StatusCompletionRequest != 0
}

func (s InterfaceStatus) CommandRejected() bool {
	return s&StatusCommandReject != 0
}

// ReadyForCommand is the admission gate for issuing a new command
func (s InterfaceStatus) ReadyForCommand() bool {
	return !s.TransferRequest() && !s.Busy() && !s.CompletionRequest() && s.DatabusEnabled()
}

// String renders the raw value followed by the set flags
func (s InterfaceStatus) String() string {
	out := hex8(uint8(s))
	flags := []struct {
		bit  InterfaceStatus
		name string
	}{
		{StatusDatabusEnable, "DBEN"},
		{StatusReadWriteRequest, "RD"},
		{StatusTransferRequest, "XFER"},
		{StatusInterfaceBusy, "BUSY"},
		{StatusCompletionRequest, "COMP"},
		{StatusCommandReject, "REJ"},
	}
	for _, f := range flags {
		if s&f.bit != 0 {
			out += " " + f.name
		}
	}
	return out
}
