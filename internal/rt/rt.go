// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux

// Package rt adjusts the scheduling of the calling thread.
package rt

import "golang.org/x/sys/unix"

// SetFIFO moves the calling thread to the SCHED_FIFO policy at the given
// priority, which must be in the range 1..99.
//
// The calling goroutine should be locked to its thread.
func SetFIFO(priority int) error {
	if priority < 1 || priority > 99 {
		return unix.EINVAL
	}
	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(priority),
	}
	return unix.SchedSetAttr(0, &attr, 0)
}
