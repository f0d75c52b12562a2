//go:build darwin && !tinygo

package serial

import "golang.org/x/sys/unix"

const ioctlTCFlush = unix.TIOCFLUSH
