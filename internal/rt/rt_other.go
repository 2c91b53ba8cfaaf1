// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build !linux

package rt

import "errors"

// ErrUnsupported indicates real-time scheduling is not available.
var ErrUnsupported = errors.New("real-time scheduling not supported")

// SetFIFO is not supported on this platform.
func SetFIFO(priority int) error {
	return ErrUnsupported
}
