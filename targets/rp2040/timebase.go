//go:build rp2040 || rp2350

package main

import (
	"time"

	"tinygo.org/x/drivers/delay"
)

// ClockFreq is the rate of the hardware microsecond timer
const ClockFreq = 1000000

// hardwareUptime reads the 64-bit microsecond timer
func hardwareUptime() uint64 {
	// Read high, low, high to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// hwClock is the interface time base: microsecond timer for Now, cycle-counted
// busy-waits for the sub-millisecond bus delays
type hwClock struct{}

func (hwClock) Now() time.Time {
	return time.Unix(0, int64(hardwareUptime())*int64(time.Microsecond))
}

func (hwClock) Sleep(d time.Duration) {
	switch {
	case d <= 0:
	case d < time.Millisecond:
		delay.Sleep(d)
	default:
		time.Sleep(d)
	}
}
