//go:build (linux || darwin) && !tinygo

package serial

import "golang.org/x/sys/unix"

// flushDevice discards the terminal queues of device. The queues belong to
// the tty, so a second descriptor reaches the ones tarm/serial reads from.
func flushDevice(device string) error {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.IoctlSetInt(fd, ioctlTCFlush, unix.TCIOFLUSH)
}
