// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spibus

// EventType identifies the kind of event raised by a Peripheral.
type EventType int

const (
	// EventEnd indicates the phase started by Peripheral.Start has ended.
	EventEnd EventType = iota

	// EventStopped indicates the bus has stopped following Peripheral.Stop.
	EventStopped
)

func (t EventType) String() string {
	switch t {
	case EventEnd:
		return "end"
	case EventStopped:
		return "stopped"
	}
	return "unknown"
}

// Event is raised by a Peripheral from its own goroutine.
type Event struct {
	Type EventType

	// Err is non-nil if the phase failed.
	Err error
}

// EventHandler receives events from a Peripheral.
//
// Handlers are called from the peripheral goroutine and must not block.
type EventHandler func(Event)

// Peripheral is an SPI master capable of performing one DMA phase at a time.
//
// Start and Stop return immediately. The outcome of each is reported
// asynchronously to the installed EventHandler, never from within the call
// itself, so a handler may safely start the next phase.
type Peripheral interface {
	// Start begins a phase that either writes tx or reads into rx.
	// Exactly one of tx and rx is non-empty.
	Start(tx, rx []byte) error

	// Stop ends the current transaction.
	Stop() error

	// Handle installs the event handler. A nil handler discards events.
	Handle(h EventHandler)

	// Close releases the peripheral.
	Close() error
}

// ChipSelect is the enable line of one device on the bus.
type ChipSelect interface {
	// Assert selects the device.
	Assert() error

	// Deassert deselects the device.
	Deassert() error
}
