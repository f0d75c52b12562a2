//go:build (rp2040 || rp2350) && !debug

package main

// InitDebug leaves core debug output disabled
func InitDebug() {}
