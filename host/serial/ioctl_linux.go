//go:build linux && !tinygo

package serial

import "golang.org/x/sys/unix"

const ioctlTCFlush = unix.TCFLSH
