// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spibus

import "time"

const (
	// DefaultTransferTimeout is the longest a transaction may take once
	// the bus has been acquired.
	DefaultTransferTimeout = time.Second

	// DefaultMaxDevices is the number of devices that may be attached to a
	// bus.
	DefaultMaxDevices = 2
)

// Option specifies a construction option for a Bus.
type Option func(*Bus)

// WithTransferTimeout sets the limit on the duration of a transaction,
// from the start of the first phase until the bus stops.
func WithTransferTimeout(d time.Duration) Option {
	return func(b *Bus) {
		b.xferTimeout = d
	}
}

// WithMaxDevices sets the number of device slots on the bus.
func WithMaxDevices(n int) Option {
	return func(b *Bus) {
		b.maxDevices = n
	}
}
