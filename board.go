// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads129x

import "github.com/warthog618/ads129x/spibus"

// Board provides the control lines connecting the ADCs to the host, other
// than the SPI bus itself.
type Board interface {
	// ChipSelect returns the chip select of the nth ADC, or nil if there is
	// no such ADC.
	ChipSelect(n int) spibus.ChipSelect

	// PowerUp releases the ADCs from power down and reset and powers up the
	// analog supply.
	PowerUp() error

	// PowerDown removes the analog supply.
	PowerDown() error

	// SetStart drives the START line shared by the ADCs.
	SetStart(start bool) error

	// EnableDataReady calls the handler on each data ready edge until
	// DisableDataReady is called.
	//
	// The ADCs are assumed to share the data ready line, or be daisy
	// chained, so that an edge indicates both have converted.
	//
	// The handler may be called from any goroutine and must not block.
	EnableDataReady(handler func()) error

	// DisableDataReady stops calls to the data ready handler.
	DisableDataReady() error
}
